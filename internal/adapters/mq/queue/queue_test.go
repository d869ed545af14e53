package queue

import (
	"context"
	"testing"
	"time"

	"github.com/astrolab/knwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func job(id string) Job {
	return &model.Candidate{ObjectID: id, RuleSet: "early_kn"}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded queue", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("When jobs fit within capacity", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("Then an extra job is dropped, not queued", func() {
				So(q.Enqueue(ctx, job("c")), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When jobs are dequeued", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			out := q.Dequeue(ctx)
			var ids []string
			for j := range out {
				ids = append(ids, j.ObjectID)
			}

			Convey("Then delivery preserves enqueue order and drains fully", func() {
				So(ids, ShouldResemble, []string{"a", "b"})
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then it rejects new jobs and reports closed", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, job("a")), ShouldBeFalse)
			})

			Convey("And closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})

		Convey("When the consumer context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			out := q.Dequeue(cctx)
			cancel()

			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			q.Close()

			select {
			case _, ok := <-out:
				// Either the job slipped through before cancel or
				// the channel closed; both are acceptable, the
				// goroutine must not leak.
				_ = ok
			case <-time.After(time.Second):
				t.Fatal("dequeue channel neither delivered nor closed")
			}
		})
	})
}
