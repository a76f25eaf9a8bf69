package match

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrRingTimeout is returned when a ring buffer shutdown times out.
var ErrRingTimeout = errors.New("ringbuffer: shutdown timeout")

// EventHandler consumes events drained from a RingBuffer.
type EventHandler[T any] interface {
	OnEvent(event T)
}

// RingBuffer is an MPSC ring buffer: many producers, one consumer
// goroutine. Producers claim a slot with a CAS on the producer sequence,
// write the event, then mark the slot published; the consumer spins until
// the slot it waits for is published.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerSequence atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer     []T
	bufferMask int64
	capacity   int64

	// published[i] holds the sequence last written to slot i
	published []int64

	handler EventHandler[T]

	isShutdown atomic.Bool
}

// NewRingBuffer creates a new MPSC RingBuffer.
// capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("capacity must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)

	for i := range rb.published {
		atomic.StoreInt64(&rb.published[i], -1)
	}

	return rb
}

// Publish writes one event into the ring. Safe for multiple producers.
// Blocks (spinning) while the buffer is full; drops the event if the ring
// is shutting down.
func (rb *RingBuffer[T]) Publish(event T) {
	if rb.isShutdown.Load() {
		return
	}

	var nextSeq int64
	for {
		currentProducerSeq := rb.producerSequence.Load()
		nextSeq = currentProducerSeq + 1

		// The producer must not lap the consumer by more than one buffer.
		wrapPoint := nextSeq - rb.capacity
		consumerSeq := rb.consumerSequence.Load()

		if wrapPoint > consumerSeq {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(currentProducerSeq, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	index := nextSeq & rb.bufferMask
	rb.buffer[index] = event

	// Make the write visible to the consumer.
	atomic.StoreInt64(&rb.published[index], nextSeq)
}

// Start launches the consumer goroutine.
func (rb *RingBuffer[T]) Start() {
	go rb.consumerLoop()
}

// Shutdown stops accepting events and waits until the consumer has
// processed everything already claimed, or the context expires.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	for {
		select {
		case <-ctx.Done():
			return ErrRingTimeout
		default:
			if rb.ConsumerSequence() >= rb.ProducerSequence() {
				return nil
			}
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) consumerLoop() {
	nextConsumerSeq := rb.consumerSequence.Load() + 1

	for {
		availableSeq := rb.producerSequence.Load()

		if rb.isShutdown.Load() {
			rb.processRemainingEvents(nextConsumerSeq)
			return
		}

		processed := false
		for nextConsumerSeq <= availableSeq {
			index := nextConsumerSeq & rb.bufferMask

			// Wait for the slot to be published.
			for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
				runtime.Gosched()
			}

			event := rb.buffer[index]
			rb.handler.OnEvent(event)

			rb.consumerSequence.Store(nextConsumerSeq)
			nextConsumerSeq++
			processed = true
		}

		if !processed {
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) processRemainingEvents(nextConsumerSeq int64) {
	availableSeq := rb.producerSequence.Load()

	for nextConsumerSeq <= availableSeq {
		index := nextConsumerSeq & rb.bufferMask

		for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
			runtime.Gosched()
		}

		event := rb.buffer[index]
		rb.handler.OnEvent(event)

		rb.consumerSequence.Store(nextConsumerSeq)
		nextConsumerSeq++
	}
}

// ConsumerSequence returns the current consumer sequence (monitoring).
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the current producer sequence (monitoring).
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// PendingEvents returns the number of claimed but unconsumed events.
func (rb *RingBuffer[T]) PendingEvents() int64 {
	producerSeq := rb.producerSequence.Load()
	consumerSeq := rb.consumerSequence.Load()
	return producerSeq - consumerSeq
}

// RingPublishLog is a PublishLog that hands logs to a downstream consumer
// through a RingBuffer, taking log fan-out off the matching hot path.
// Logs are cloned before publication because the matching loop recycles
// them to a pool as soon as Publish returns.
type RingPublishLog struct {
	ring *RingBuffer[*BookLog]
}

type forwardHandler struct {
	downstream PublishLog
}

func (h *forwardHandler) OnEvent(log *BookLog) {
	h.downstream.Publish(log)
}

// NewRingPublishLog creates and starts a RingPublishLog that forwards to
// downstream. capacity must be a power of 2.
func NewRingPublishLog(downstream PublishLog, capacity int64) *RingPublishLog {
	p := &RingPublishLog{
		ring: NewRingBuffer[*BookLog](capacity, &forwardHandler{downstream: downstream}),
	}
	p.ring.Start()
	return p
}

// Publish clones each log and enqueues it for the consumer.
func (p *RingPublishLog) Publish(logs ...*BookLog) {
	for _, log := range logs {
		cpy := new(BookLog)
		*cpy = *log
		p.ring.Publish(cpy)
	}
}

// Shutdown drains the ring and stops the consumer.
func (p *RingPublishLog) Shutdown(ctx context.Context) error {
	return p.ring.Shutdown(ctx)
}
