package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5}}, Chunk([]int{1, 2, 3, 4, 5}, 3))
	assert.Equal(t, [][]int{{1}, {2}}, Chunk([]int{1, 2}, 0))
	assert.Empty(t, Chunk([]int{}, 3))
}

func TestReplyGrid(t *testing.T) {
	markup := ReplyGrid([]string{"1 Dota 2", "2 CS2", "3 Rust", "4 Apex"}, 3)
	require.Len(t, markup.ReplyKeyboard, 2)
	assert.Len(t, markup.ReplyKeyboard[0], 3)
	assert.Equal(t, "4 Apex", markup.ReplyKeyboard[1][0].Text)
	assert.True(t, markup.ResizeKeyboard)
}

func TestInlineButtonsRows(t *testing.T) {
	markup := InlineButtonsRows([]InlineBtn{{Text: "Next", Unique: "next"}, {Text: "Invite", Unique: "invite"}})
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "invite", markup.InlineKeyboard[0][1].Unique)
	assert.True(t, RemoveKeyboard().RemoveKeyboard)
}
