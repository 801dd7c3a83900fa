package apiclient

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestEnvelope(t *testing.T) {
	type user struct {
		ID   int    `json:"id"`
		Role string `json:"role"`
	}

	tests := []struct {
		name    string
		body    string
		field   string
		want    user
		wantErr error
	}{
		{name: "nested", body: `{"success": true, "data": {"user": {"id": 1, "role": "admin"}}}`, field: "user", want: user{1, "admin"}},
		{name: "top-level", body: `{"user": {"id": 2, "role": "user"}}`, field: "user", want: user{2, "user"}},
		{name: "nested wins", body: `{"user": {"id": 2}, "data": {"user": {"id": 3}}}`, field: "user", want: user{ID: 3}},
		{name: "null nested falls back", body: `{"user": {"id": 2}, "data": {"user": null}}`, field: "user", want: user{ID: 2}},
		{name: "missing", body: `{"data": {"token": "t"}}`, field: "user", wantErr: ErrFieldMissing},
		{name: "data list", body: `{"data": [1, 2], "user": {"id": 4}}`, field: "user", want: user{ID: 4}},
		{name: "whole data object", body: `{"data": {"id": 5, "role": "admin"}}`, field: "", want: user{5, "admin"}},
		{name: "whole body", body: `{"id": 6}`, field: "", want: user{ID: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := newEnvelope(200, []byte(tt.body))
			if err != nil {
				t.Fatalf("newEnvelope() failed: %v", err)
			}
			var got user
			err = env.Decode(tt.field, &got)
			if tt.wantErr != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEnvelope_helpers(t *testing.T) {
	env, err := newEnvelope(200, []byte(`{"success": false, "message": "nope", "student": {"id": "s1"}}`))
	if err != nil {
		t.Fatalf("newEnvelope() failed: %v", err)
	}
	ok, present := env.Success()
	assert.False(t, ok)
	assert.True(t, present)
	assert.Equal(t, "nope", env.Message())
	assert.Equal(t, "nope", env.MessageOr("default"))

	var s struct {
		ID string `json:"id"`
	}
	assert.NoError(t, env.DecodeFirst(&s, "student", "data"))
	assert.Equal(t, "s1", s.ID)

	bare, _ := newEnvelope(200, []byte(`{"id": "s2"}`))
	_, present = bare.Success()
	assert.False(t, present)
	assert.Equal(t, "default", bare.MessageOr("default"))
	assert.NoError(t, bare.DecodeFirst(&s, "student"))
	assert.Equal(t, "s2", s.ID)

	_, err = newEnvelope(200, []byte(`[1, `))
	assert.Error(t, err)
}
