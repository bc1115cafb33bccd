package src

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNotificationCap(t *testing.T) {
	initTestSystem(t)
	System.Notification = make(map[string]Notification)

	for i := 1; i <= 20; i++ {
		require.NoError(t, addNotification(Notification{
			Headline: fmt.Sprintf("Notice %02d", i),
			Message:  fmt.Sprintf("Message %d", i),
			Type:     "info",
		}))
	}

	assert.Len(t, System.Notification, 10)

	// The oldest entries were pruned
	_, ok := System.Notification["Notice 01"]
	assert.False(t, ok)

	entry, ok := System.Notification["Notice 20"]
	require.True(t, ok)
	assert.Equal(t, "Message 20", entry.Message)
	assert.True(t, entry.New)
	assert.NotEmpty(t, entry.Time)
}

func TestAddNotificationReplacesSameHeadline(t *testing.T) {
	initTestSystem(t)
	System.Notification = make(map[string]Notification)

	require.NoError(t, addNotification(Notification{Headline: "Update", Message: "first", Type: "info"}))
	require.NoError(t, addNotification(Notification{Headline: "Update", Message: "second", Type: "info"}))

	assert.Len(t, System.Notification, 1)
	assert.Equal(t, "second", System.Notification["Update"].Message)
}

func TestLogCleanUp(t *testing.T) {
	initTestSystem(t)
	Settings.LogEntriesRAM = 5

	WebScreenLog.Mu.Lock()
	WebScreenLog.Log = nil
	for i := 1; i <= 8; i++ {
		WebScreenLog.Log = append(WebScreenLog.Log, fmt.Sprintf("entry %d", i))
	}
	WebScreenLog.Log = append(WebScreenLog.Log, "a WARNING entry", "an ERROR entry")
	logCleanUp()
	WebScreenLog.Mu.Unlock()

	WebScreenLog.Mu.Lock()
	defer WebScreenLog.Mu.Unlock()

	assert.Len(t, WebScreenLog.Log, 5)

	// The counters reflect what is still in the trimmed log
	assert.Equal(t, 1, WebScreenLog.Warnings)
	assert.Equal(t, 1, WebScreenLog.Errors)
	assert.Equal(t, "an ERROR entry", WebScreenLog.Log[4])
}

func TestShowWarningCounts(t *testing.T) {
	initTestSystem(t)

	showWarning(2020)

	WebScreenLog.Mu.Lock()
	defer WebScreenLog.Mu.Unlock()

	assert.Equal(t, 1, WebScreenLog.Warnings)
	require.NotEmpty(t, WebScreenLog.Log)
	assert.Contains(t, WebScreenLog.Log[len(WebScreenLog.Log)-1], getErrMsg(2020))
}
