package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/beacon/internal/core/notice"
)

func TestToastController_Push(t *testing.T) {
	c := NewToastController(0)

	c.Push(notice.Notice{Level: notice.LevelInfo, Message: "hello"})

	assert.True(t, c.HasToasts())
	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "hello", c.Toasts()[0].notice.Message)
	assert.Equal(t, defaultToastTTL, c.Toasts()[0].remaining)
}

func TestToastController_Push_evicts_oldest_at_max(t *testing.T) {
	c := NewToastController(time.Second)

	for i := range defaultMaxToasts + 2 {
		c.Push(notice.Notice{
			Level:   notice.LevelInfo,
			Message: time.Duration(i).String(),
		})
	}

	assert.Len(t, c.Toasts(), defaultMaxToasts)
	assert.Equal(t, "2ns", c.Toasts()[0].notice.Message)
}

func TestToastController_Tick_removes_expired(t *testing.T) {
	c := NewToastController(time.Second)
	c.Push(notice.Notice{Level: notice.LevelInfo, Message: "expires"})
	c.SetTTL(3 * time.Second)
	c.Push(notice.Notice{Level: notice.LevelInfo, Message: "survives"})

	c.Tick(500 * time.Millisecond)
	assert.Len(t, c.Toasts(), 2)

	c.Tick(time.Second)
	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "survives", c.Toasts()[0].notice.Message)
	assert.Equal(t, 1500*time.Millisecond, c.Toasts()[0].remaining)
}

func TestToastController_Dismiss(t *testing.T) {
	c := NewToastController(0)
	c.Dismiss()
	assert.False(t, c.HasToasts())

	c.Push(notice.Notice{Level: notice.LevelInfo, Message: "first"})
	c.Push(notice.Notice{Level: notice.LevelInfo, Message: "second"})
	c.Dismiss()

	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "first", c.Toasts()[0].notice.Message)
}
