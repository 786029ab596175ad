package core

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestOrderStoreUpdateIsAtomic(t *testing.T) {
	store := NewOrderStore(Order{OrderID: "order-1"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.Update(Order{FiatAmount: fmt.Sprintf("%d", i+1)})
		}(i)
		go func() {
			defer wg.Done()
			_ = store.Get()
		}()
	}
	wg.Wait()

	order := store.Get()
	if order.OrderID != "order-1" {
		t.Fatalf("идентификатор заказа потерян: %+v", order)
	}
	if order.FiatAmount == "" {
		t.Fatal("ни одно обновление не применилось")
	}
}

func TestOrderStoreSubscribeDeliversSnapshots(t *testing.T) {
	store := NewOrderStore(Order{OrderID: "order-1"})
	updates, cancel := store.Subscribe()
	defer cancel()

	store.Update(Order{Status: StatusNew})

	select {
	case snapshot := <-updates:
		if snapshot.Status != StatusNew || snapshot.OrderID != "order-1" {
			t.Fatalf("пришел неверный снапшот: %+v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("снапшот не доставлен")
	}
}

func TestOrderStoreCancelStopsDelivery(t *testing.T) {
	store := NewOrderStore(Order{OrderID: "order-1"})
	updates, cancel := store.Subscribe()
	cancel()

	// запись после отписки не должна паниковать
	store.Update(Order{Status: StatusNew})

	if _, ok := <-updates; ok {
		t.Fatal("канал должен быть закрыт после отписки")
	}
}

func TestOrderStoreSlowSubscriberDoesNotBlockWrites(t *testing.T) {
	store := NewOrderStore(Order{OrderID: "order-1"})
	_, cancel := store.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// буфер канала — 16, пишем больше: лишнее должно молча теряться
		for i := 0; i < 100; i++ {
			store.Update(Order{FiatAmount: fmt.Sprintf("%d", i+1)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("медленный подписчик заблокировал запись")
	}
}
