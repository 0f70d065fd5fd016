package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/plus3/cubeview/input"
	"github.com/stretchr/testify/assert"
)

func TestKeyTranslation(t *testing.T) {
	cases := []struct {
		key    glfw.Key
		action glfw.Action
		want   input.KeyboardEvent
	}{
		{glfw.KeyW, glfw.Press, input.KeyboardEvent{ScanCode: 17, Key: input.KeyW, State: input.Pressed}},
		{glfw.KeyD, glfw.Repeat, input.KeyboardEvent{ScanCode: 17, Key: input.KeyD, State: input.Pressed}},
		{glfw.KeyA, glfw.Release, input.KeyboardEvent{ScanCode: 17, Key: input.KeyA, State: input.Released}},
		{glfw.KeyQ, glfw.Press, input.KeyboardEvent{ScanCode: 17, Key: input.KeyUnknown, State: input.Pressed}},
		{glfw.KeyUnknown, glfw.Press, input.KeyboardEvent{ScanCode: 17, Key: input.KeyUnknown, State: input.Pressed}},
	}
	for _, tc := range cases {
		got := Keymap.Translate(rawKeyEvent(tc.key, 17, tc.action))
		assert.Equal(t, tc.want, got)
	}
}
