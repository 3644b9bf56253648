package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oledu/pyramidgo/internal/domain/dedupe"
	"github.com/oledu/pyramidgo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLatest(t *testing.T) {
	type row struct {
		key  string
		date time.Time
		tag  string
	}
	key := func(r row) string { return r.key }
	date := func(r row) time.Time { return r.date }

	Convey("Given records sharing keys", t, func() {
		in := []row{
			{"A", day(2025, 3, 1), "a1"},
			{"B", day(2025, 3, 5), "b1"},
			{"A", day(2025, 3, 10), "a2"},
			{"A", day(2025, 3, 10), "a3"},
			{"B", time.Time{}, "b2"},
		}

		out := dedupe.Latest(in, key, date)

		Convey("Then one record per key survives in first-seen key order", func() {
			So(len(out), ShouldEqual, 2)
			So(out[0].key, ShouldEqual, "A")
			So(out[1].key, ShouldEqual, "B")
		})

		Convey("Then the strictly latest date wins and ties keep the earlier row", func() {
			So(out[0].tag, ShouldEqual, "a2")
		})

		Convey("Then an unparseable date never replaces a real one", func() {
			So(out[1].tag, ShouldEqual, "b1")
		})

		Convey("Then the input is untouched", func() {
			So(in[0].tag, ShouldEqual, "a1")
			So(len(in), ShouldEqual, 5)
		})
	})

	Convey("Given a first record with no date", t, func() {
		in := []row{{"A", time.Time{}, "bad"}, {"A", day(2025, 1, 1), "good"}}

		Convey("Then a later dated record replaces it", func() {
			So(dedupe.Latest(in, key, date)[0].tag, ShouldEqual, "good")
		})
	})
}

func TestLatestCastles(t *testing.T) {
	Convey("Given castle snapshots for the same castle", t, func() {
		records := []model.CastleRecord{
			{Castle: "A", HP: 120, Start: day(2025, 2, 20)},
			{Castle: "A", HP: 100, Start: day(2025, 3, 1)},
			{Castle: "A", HP: 80, Start: day(2025, 3, 10)},
			{Castle: "B", HP: 500, Start: day(2025, 3, 1)},
		}

		out := dedupe.LatestCastles(records)

		Convey("Then the latest snapshot is kept", func() {
			So(len(out), ShouldEqual, 2)
			So(out[0].Castle, ShouldEqual, "A")
			So(out[0].HP, ShouldEqual, 80)
		})

		Convey("Then the original HP comes from the first-seen record", func() {
			So(out[0].OriginalHP, ShouldEqual, 120)
			So(out[1].OriginalHP, ShouldEqual, 500)
		})
	})

	Convey("Given the two-record case without an earlier insert", t, func() {
		records := []model.CastleRecord{
			{Castle: "A", HP: 100, Start: day(2025, 3, 1)},
			{Castle: "A", HP: 80, Start: day(2025, 3, 10)},
		}
		out := dedupe.LatestCastles(records)

		So(out[0].HP, ShouldEqual, 80)
		So(out[0].OriginalHP, ShouldEqual, 100)
	})
}

func TestLatestHomeGyms(t *testing.T) {
	Convey("Given repeated participation rows", t, func() {
		rows := []model.CastleParticipant{
			{Climber: "amy", HomeGym: "Alpha", Start: day(2025, 3, 1), End: day(2025, 3, 31)},
			{Climber: "amy", HomeGym: "Beta", Start: day(2025, 3, 1)},
			{Climber: "amy", HomeGym: "Alpha", Start: day(2025, 4, 1), End: day(2025, 4, 30)},
		}

		out := dedupe.LatestHomeGyms(rows)

		Convey("Then each climber and gym pair keeps its latest window", func() {
			So(len(out), ShouldEqual, 2)
			So(out[0].End, ShouldEqual, day(2025, 4, 30))
			So(out[1].HomeGym, ShouldEqual, "Beta")
			So(dedupe.HomeGymKey("amy", "Alpha"), ShouldEqual, "amy-Alpha")
		})
	})
}

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When recording submissions", func() {
			d := dedupe.NewInMemoryDeduper()

			first := d.SeenAndRecord(ctx, "digest-1")
			second := d.SeenAndRecord(ctx, "digest-1")

			Convey("Then the first call records and the second reports a duplicate", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording a submission", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "digest-1")
			d.Unrecord(ctx, "digest-1")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "digest-1"), ShouldBeFalse)
			})
		})

		Convey("When the deduper is at capacity", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
			d.SeenAndRecord(ctx, "a")
			d.SeenAndRecord(ctx, "b")
			d.SeenAndRecord(ctx, "c")

			Convey("Then the oldest id is evicted", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})

		Convey("When eviction is disabled", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := 0; i < 5000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i))
			}

			Convey("Then every id is kept", func() {
				So(d.Size(), ShouldEqual, 5000)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		ctx := context.Background()

		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is recorded exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
