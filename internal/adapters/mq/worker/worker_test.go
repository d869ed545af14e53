package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/astrolab/knwatch/internal/adapters/mq/queue"
	"github.com/astrolab/knwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDispatcher) Notify(_ context.Context, c *model.Candidate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, c.ObjectID)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerDrainsQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a worker on a populated queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		d := &recordingDispatcher{}
		w := New(q, d, WithName("dispatch-test"))

		for _, id := range []string{"a", "b", "c"} {
			So(q.Enqueue(ctx, &model.Candidate{ObjectID: id}), ShouldBeTrue)
		}

		go w.Run(ctx)

		Convey("Then every job reaches the dispatcher", func() {
			waitFor(t, func() bool { return d.count() == 3 })

			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			So(w.Shutdown(sctx), ShouldBeNil)
		})
	})
}

func TestPoolShutdown(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		d := &recordingDispatcher{}
		p := NewPool(4, q, d)
		p.Start(ctx)

		for i := 0; i < 20; i++ {
			So(q.Enqueue(ctx, &model.Candidate{ObjectID: "obj"}), ShouldBeTrue)
		}

		Convey("When the pool shuts down", func() {
			waitFor(t, func() bool { return d.count() == 20 })
			So(p.Shutdown(ctx), ShouldBeNil)

			Convey("Then the queue no longer accepts jobs", func() {
				So(q.Enqueue(ctx, &model.Candidate{ObjectID: "late"}), ShouldBeFalse)
			})
		})
	})
}
