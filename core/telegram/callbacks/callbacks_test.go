package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name      string
		cb        *tele.Callback
		key, data string
	}{
		{"nil", nil, "", ""},
		{"unique set", &tele.Callback{Unique: "next", Data: "7"}, "next", "7"},
		{"encoded with payload", &tele.Callback{Data: "\finvite|42"}, "invite", "42"},
		{"encoded without payload", &tele.Callback{Data: "\fnext"}, "next", ""},
		{"plain", &tele.Callback{Data: "registration"}, "registration", ""},
		{"payload keeps separators", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, data := Parse(tc.cb)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.data, data)
		})
	}
}
