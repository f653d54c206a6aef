package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestList_PublishInOrder(t *testing.T) {
	var l List[int]
	var got []string

	l.Subscribe(func(v int) { got = append(got, "a") })
	l.Subscribe(func(v int) { got = append(got, "b") })

	l.Publish(1)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestList_Cancel(t *testing.T) {
	var l List[string]
	calls := 0

	cancel := l.Subscribe(func(string) { calls++ })
	l.Publish("x")
	cancel()
	cancel()
	l.Publish("y")

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, l.Len())
}

func TestList_SubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	var l List[int]
	var cancel func()
	calls := 0
	cancel = l.Subscribe(func(int) {
		calls++
		cancel()
	})

	l.Publish(1)
	l.Publish(2)

	assert.Equal(t, 1, calls)
}
