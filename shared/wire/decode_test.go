package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    GetStatusPayload
		wantErr bool
	}{
		{
			name:  "nil input",
			input: nil,
			want:  GetStatusPayload{},
		},
		{
			name: "string id and numeric type",
			input: map[string]any{
				"id_user": "u1",
				"type":    float64(7),
			},
			want: GetStatusPayload{IDUser: "u1", Type: float64(7)},
		},
		{
			name: "object type is preserved",
			input: map[string]any{
				"id_user": "u1",
				"type":    map[string]any{"k": "v"},
			},
			want: GetStatusPayload{IDUser: "u1", Type: map[string]any{"k": "v"}},
		},
		{
			name:    "non-object input",
			input:   []any{"a"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got GetStatusPayload
			err := Decode(tc.input, &got)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDecode_AuthenticateRejectsNonStringToken(t *testing.T) {
	var got AuthenticatePayload
	err := Decode(map[string]any{"token": 12}, &got)
	require.Error(t, err)
	require.Empty(t, got.Token)
}

func TestStatusReply_TypeAlwaysPresent(t *testing.T) {
	raw, err := json.Marshal(StatusError(ErrNotAuthenticated, nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"code":0,"error":"not_authenticated","type":null}`, string(raw))

	raw, err = json.Marshal(StatusOK(true, "friends"))
	require.NoError(t, err)
	require.JSONEq(t, `{"code":1,"status":"online","type":"friends"}`, string(raw))
}
