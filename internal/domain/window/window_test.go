package window_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aaronukgarcia/prixsix/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPage(t *testing.T) {
	Convey("Given 60 sorted rows and a page size of 25", t, func() {
		rows := seq(60)

		Convey("When walking the cursor chain", func() {
			first, err := window.Page(rows, 25, "")
			So(err, ShouldBeNil)
			second, err := window.Page(rows, 25, first.NextCursor)
			So(err, ShouldBeNil)
			third, err := window.Page(rows, 25, second.NextCursor)
			So(err, ShouldBeNil)

			Convey("Then pages cover every row once with exact progress", func() {
				So(first.Rows[0], ShouldEqual, 0)
				So(first.HasMore, ShouldBeTrue)
				So(first.Progress(), ShouldEqual, "25 / 60")
				So(second.Rows[0], ShouldEqual, 25)
				So(third.Rows, ShouldResemble, seq(60)[50:])
				So(third.HasMore, ShouldBeFalse)
				So(third.NextCursor, ShouldEqual, "")
				So(third.Shown, ShouldEqual, third.TotalCount)
			})
		})

		Convey("When the total is an exact multiple of the page size", func() {
			w, _ := window.Page(seq(50), 25, window.EncodeCursor(25))

			Convey("Then the known total ends paging without an empty page", func() {
				So(w.HasMore, ShouldBeFalse)
			})
		})

		Convey("When the cursor is past the end", func() {
			w, err := window.Page(rows, 25, window.EncodeCursor(500))

			Convey("Then the page is empty and final", func() {
				So(err, ShouldBeNil)
				So(w.Rows, ShouldBeEmpty)
				So(w.HasMore, ShouldBeFalse)
			})
		})

		Convey("When inputs are invalid", func() {
			_, errSize := window.Page(rows, 0, "")
			_, errCursor := window.Page(rows, 25, "not-a-cursor!")
			_, errForged := window.Page(rows, 25, "Zm9vOjEw")

			Convey("Then they are rejected", func() {
				So(errors.Is(errSize, window.ErrInvalidPageSize), ShouldBeTrue)
				So(errors.Is(errCursor, window.ErrInvalidCursor), ShouldBeTrue)
				So(errors.Is(errForged, window.ErrInvalidCursor), ShouldBeTrue)
			})
		})
	})

	Convey("Given cursor encoding", t, func() {
		So(window.EncodeCursor(0), ShouldEqual, "")
		off, err := window.DecodeCursor(window.EncodeCursor(75))
		So(err, ShouldBeNil)
		So(off, ShouldEqual, 75)
	})
}

func TestMaterializer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a source without a known total", t, func() {
		rows := seq(50)
		src := window.SourceFunc[int](func(_ context.Context, offset, limit int) ([]int, error) {
			return window.SliceSource[int](rows).Fetch(ctx, offset, limit)
		})
		m := window.NewMaterializer[int](src)

		Convey("When pages are pulled until the heuristic stops", func() {
			p1, _ := m.Next(ctx)
			p2, _ := m.Next(ctx)
			p3, _ := m.Next(ctx)

			Convey("Then a full last page needs one more empty fetch", func() {
				So(m.PageSize(), ShouldEqual, window.DefaultPageSize)
				So(p1.HasMore, ShouldBeTrue)
				So(p1.TotalKnown(), ShouldBeFalse)
				So(p1.Progress(), ShouldEqual, "25")
				So(p2.HasMore, ShouldBeTrue)
				So(p3.Rows, ShouldBeEmpty)
				So(p3.HasMore, ShouldBeFalse)
				So(m.Done(), ShouldBeTrue)
				So(m.Rows(), ShouldResemble, rows)
			})
		})
	})

	Convey("Given a source that knows its total", t, func() {
		m := window.NewMaterializer[int](window.SliceSource[int](seq(30)), window.WithPageSize(10))

		Convey("When pages are pulled", func() {
			var last window.Window[int]
			pulls := 0
			for {
				w, err := m.Next(ctx)
				So(err, ShouldBeNil)
				pulls++
				last = w
				if !w.HasMore {
					break
				}
			}

			Convey("Then progress reaches the total without an extra fetch", func() {
				So(pulls, ShouldEqual, 3)
				So(last.Progress(), ShouldEqual, "30 / 30")
			})

			Convey("Then reset starts over", func() {
				m.Reset()
				w, _ := m.Next(ctx)
				So(w.Rows[0], ShouldEqual, 0)
				So(len(m.Rows()), ShouldEqual, 10)
			})
		})
	})

	Convey("Given a failing source", t, func() {
		boom := errors.New("boom")
		m := window.NewMaterializer[int](window.SourceFunc[int](func(context.Context, int, int) ([]int, error) {
			return nil, boom
		}))
		_, err := m.Next(ctx)
		So(errors.Is(err, boom), ShouldBeTrue)
	})
}
