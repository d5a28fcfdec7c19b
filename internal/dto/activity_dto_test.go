package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActivityJSONFlattensExtensions(t *testing.T) {
	item := ActivityJSON{
		Published: "2026-08-30T10:00:00Z",
		Actor:     ObjectJSON{ObjectType: "user", ID: 1, DisplayName: "Ada"},
		Verb:      "posted",
		Object:    ObjectJSON{ObjectType: "note", ID: 2, DisplayName: "Weekly notes"},
		Extra: map[string]interface{}{
			"generator": "mobile-app",
			"verb":      "must not shadow the reserved key",
		},
	}

	payload, err := json.Marshal(item)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Equal(t, "posted", decoded["verb"], "reserved keys win over extensions")
	require.Equal(t, "mobile-app", decoded["generator"])
	require.NotContains(t, decoded, "target", "absent target is omitted entirely")

	actor, ok := decoded["actor"].(map[string]interface{})
	require.True(t, ok)
	require.Nil(t, actor["url"], "url serializes as explicit null")
}

func TestActivityJSONRoundTripsThroughCache(t *testing.T) {
	target := ObjectJSON{ObjectType: "project", ID: 9, DisplayName: "Apollo"}
	item := ActivityJSON{
		Published: "2026-08-30T10:00:00Z",
		Actor:     ObjectJSON{ObjectType: "user", ID: 1, DisplayName: "Ada"},
		Verb:      "filed under",
		Object:    ObjectJSON{ObjectType: "note", ID: 2, DisplayName: "Weekly notes"},
		Target:    &target,
		Extra:     map[string]interface{}{"generator": "mobile-app"},
	}

	payload, err := json.Marshal(item)
	require.NoError(t, err)

	var restored ActivityJSON
	require.NoError(t, json.Unmarshal(payload, &restored))
	require.Equal(t, item.Published, restored.Published)
	require.Equal(t, item.Verb, restored.Verb)
	require.NotNil(t, restored.Target)
	require.Equal(t, "project", restored.Target.ObjectType)
	require.Equal(t, "mobile-app", restored.Extra["generator"])
}
