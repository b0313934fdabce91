// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"context"
	"iter"
	"sync"
)

// Subscription is a live registration for one event type. Registration
// happens when the Subscription is created, so no event published after
// NewSubscription returns is missed, even if nobody is ranging over it yet.
type Subscription struct {
	bus       *EventBus
	eventType EventType
	id        EventSubscriberId
	ch        <-chan Event
	closeOnce sync.Once
}

// NewSubscription registers a subscriber for eventType
func (e *EventBus) NewSubscription(eventType EventType) *Subscription {
	id, ch := e.Subscribe(eventType)
	return &Subscription{
		bus:       e,
		eventType: eventType,
		id:        id,
		ch:        ch,
	}
}

// Events returns the subscription as a sequence. The sequence ends when ctx
// is done, the consumer stops, or the subscription is closed. Breaking out of
// a range loop leaves the subscription open, and ranging again resumes with
// the next undelivered event.
func (s *Subscription) Events(ctx context.Context) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-s.ch:
				if !ok {
					return
				}
				if !yield(evt) {
					return
				}
			}
		}
	}
}

// Close unregisters the subscription
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.Unsubscribe(s.eventType, s.id)
	})
}

// Events returns a lazy sequence of events of the given type. The bus is
// subscribed to when iteration starts and unsubscribed when it ends, so the
// same sequence can be ranged over repeatedly.
func (e *EventBus) Events(
	ctx context.Context,
	eventType EventType,
) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		sub := e.NewSubscription(eventType)
		defer sub.Close()
		for evt := range sub.Events(ctx) {
			if !yield(evt) {
				return
			}
		}
	}
}
