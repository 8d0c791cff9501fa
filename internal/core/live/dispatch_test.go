package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/beacon/internal/core/notification"
)

func kinds(msgs []Message) []Kind {
	out := make([]Kind, len(msgs))
	for i, m := range msgs {
		out[i] = m.Kind()
	}
	return out
}

func TestDecode_NotificationFrame(t *testing.T) {
	d := NewDispatcher()

	msgs, err := d.Decode([]byte(`{
		"notification_count": 4,
		"reload_widget": true,
		"notification": {"id": "n9", "level": "error", "message": "<p>gw-1 down</p>", "target_url": "/admin/device/1/"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []Kind{KindCountUpdate, KindReloadSignal, KindPush}, kinds(msgs))
	assert.Equal(t, Count{Value: 4}, msgs[0].(CountUpdate).Count)
	push := msgs[2].(PushNotification)
	assert.Equal(t, notification.ID("n9"), push.Notification.ID)
	assert.Equal(t, "/admin/device/1/", push.Notification.TargetURL)
}

func TestDecode_SkipsAbsentAndFalseFields(t *testing.T) {
	d := NewDispatcher()

	msgs, err := d.Decode([]byte(`{"notification_count": "99+", "reload_widget": false, "notification": null}`))
	require.NoError(t, err)

	require.Equal(t, []Kind{KindCountUpdate}, kinds(msgs))
	c := msgs[0].(CountUpdate).Count
	assert.Equal(t, "99+", c.String())
	assert.True(t, c.Overflow)
}

func TestDecode_MalformedFieldsAreSkipped(t *testing.T) {
	d := NewDispatcher()

	msgs, err := d.Decode([]byte(`{"notification_count": "lots", "reload_widget": true, "notification": {"message": "no id"}}`))
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindReloadSignal}, kinds(msgs))

	_, err = d.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecode_ObjectFrame(t *testing.T) {
	d := NewDispatcher()

	msgs, err := d.Decode([]byte(`{"type": "object_notification", "valid_till": "2024-05-01T10:00:00Z"}`))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	ack := msgs[0].(ObjectAck)
	require.NotNil(t, ack.ValidTill)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), ack.ValidTill.UTC())

	msgs, err = d.Decode([]byte(`{"type": "object_notification", "valid_till": null}`))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].(ObjectAck).Permanent())

	msgs, err = d.Decode([]byte(`{"type": "object_notification"}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDecode_UnknownFrameType(t *testing.T) {
	d := NewDispatcher()

	msgs, err := d.Decode([]byte(`{"type": "presence", "notification_count": 1}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDispatch_TypedHandlers(t *testing.T) {
	d := NewDispatcher()
	var got []string

	On(d, func(_ context.Context, m CountUpdate) { got = append(got, "count:"+m.Count.String()) })
	On(d, func(_ context.Context, _ ReloadSignal) { got = append(got, "reload") })
	On(d, func(_ context.Context, m PushNotification) { got = append(got, "push:"+m.Notification.ID.String()) })

	err := d.Dispatch(context.Background(), []byte(`{"notification_count": 2, "reload_widget": true, "notification": {"id": "a"}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"count:2", "reload", "push:a"}, got)
}

func TestBadge_ZeroRemovesThenRecreates(t *testing.T) {
	d := NewDispatcher()
	var b Badge
	b.Set(Count{Value: 5})

	On(d, func(_ context.Context, m CountUpdate) { b.Apply(m) })

	require.NoError(t, d.Dispatch(context.Background(), []byte(`{"notification_count": 0, "reload_widget": false, "notification": null}`)))
	assert.False(t, b.Visible())
	assert.Empty(t, b.Text())

	require.NoError(t, d.Dispatch(context.Background(), []byte(`{"notification_count": 3, "reload_widget": false, "notification": null}`)))
	assert.True(t, b.Visible())
	assert.Equal(t, "3", b.Text())
}

func TestBadge_ApplyReportsChange(t *testing.T) {
	var b Badge

	assert.False(t, b.Set(Count{}))
	assert.True(t, b.Set(Count{Value: 1}))
	assert.False(t, b.Set(Count{Value: 1}))
	assert.True(t, b.Set(Count{Value: 99, Overflow: true}))
	assert.Equal(t, "99+", b.Text())
}

func TestParseCount(t *testing.T) {
	c, err := ParseCount("12")
	require.NoError(t, err)
	assert.Equal(t, Count{Value: 12}, c)

	_, err = ParseCount("-1")
	assert.Error(t, err)
}

func TestObjectSubscribe(t *testing.T) {
	sub := NewObjectSubscribe("config", "device", "42")
	assert.Equal(t, FrameObject, sub.Type)
	assert.Equal(t, "42", sub.ObjectID)
}
