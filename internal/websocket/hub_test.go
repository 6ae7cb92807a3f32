package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	channel  string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string, channel string) *mockClient {
	return &mockClient{
		id:       id,
		channel:  channel,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Channel() string {
	return m.channel
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestSiteChannel(t *testing.T) {
	id := uuid.MustParse("0b7c3c8e-7a55-4d3b-9d0a-6c1e1f0e2a11")
	assert.Equal(t, "site:0b7c3c8e-7a55-4d3b-9d0a-6c1e1f0e2a11", SiteChannel(id))
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", GlobalChannel)
	client2 := newMockClient("client-2", GlobalChannel)
	client3 := newMockClient("client-3", "site:a")

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount(GlobalChannel))
	assert.Equal(t, 1, hub.ClientCount("site:a"))
	assert.Equal(t, 0, hub.ClientCount("site:missing"))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount(GlobalChannel))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount(GlobalChannel))
	assert.Equal(t, 0, hub.ClientCount("site:a"))
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_Broadcast_ChannelIsolation(t *testing.T) {
	hub := NewHub()

	siteA1 := newMockClient("client-a1", "site:a")
	siteA2 := newMockClient("client-a2", "site:a")
	siteB := newMockClient("client-b", "site:b")

	hub.Register(siteA1)
	hub.Register(siteA2)
	hub.Register(siteB)

	evt := EntityCreated(EntityTypeExpense, map[string]interface{}{"id": "e1"})
	hub.Broadcast("site:a", evt)

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	assert.Len(t, siteA1.GetMessages(), 1, "siteA1 should receive 1 message")
	assert.Len(t, siteA2.GetMessages(), 1, "siteA2 should receive 1 message")
	assert.Len(t, siteB.GetMessages(), 0, "siteB should not receive site:a events")
}

func TestHub_Broadcast_MultipleFanOut(t *testing.T) {
	hub := NewHub()

	clients := make([]*mockClient, 5)
	for i := 0; i < 5; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), GlobalChannel)
		hub.Register(clients[i])
	}

	hub.Broadcast(GlobalChannel, IntegrityChecked(map[string]interface{}{"totalIssues": float64(0)}))

	time.Sleep(10 * time.Millisecond)

	for i, c := range clients {
		assert.Len(t, c.GetMessages(), 1, "client %d should receive message", i)
	}
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), fmt.Sprintf("site:%d", i%5))
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}

	wg.Wait()

	total := 0
	for ch := 0; ch < 5; ch++ {
		total += hub.ClientCount(fmt.Sprintf("site:%d", ch))
	}
	assert.Equal(t, clientCount, total)

	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			evt := EntityUpdated(EntityTypeSite, map[string]interface{}{"index": idx})
			hub.Broadcast(fmt.Sprintf("site:%d", idx%5), evt)
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", GlobalChannel)

	require.NotPanics(t, func() {
		hub.Unregister(client)
	})
}

func TestHub_BroadcastToEmptyChannel(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Broadcast("site:nobody", EntityDeleted(EntityTypeSite, map[string]interface{}{"id": "x"}))
	})
}
