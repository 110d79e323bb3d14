package drivers_test

import (
	"testing"

	"github.com/aaronukgarcia/prixsix/internal/domain/drivers"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDirectory(t *testing.T) {
	Convey("Given a directory built from the default grid", t, func() {
		dir := drivers.New(drivers.Grid())

		Convey("Then known ids resolve case-insensitively", func() {
			So(dir.Name("VERSTAPPEN"), ShouldEqual, "Max Verstappen")
			So(dir.Known(" norris "), ShouldBeTrue)
			So(dir.Len(), ShouldEqual, 20)
		})

		Convey("Then unknown ids fall back to the raw identifier", func() {
			So(dir.Name("Mystery"), ShouldEqual, "Mystery")
			So(dir.Known("Mystery"), ShouldBeFalse)
		})
	})

	Convey("Given entries without display names and blanks", t, func() {
		dir := drivers.New([]model.Driver{{ID: "ABC"}, {ID: " "}, {ID: "xyz", DisplayName: "X"}})

		Convey("Then blanks are skipped and the id stands in for a missing name", func() {
			So(dir.Len(), ShouldEqual, 2)
			So(dir.Name("abc"), ShouldEqual, "ABC")
			So(dir.Drivers(), ShouldResemble, []model.Driver{{ID: "abc", DisplayName: "ABC"}, {ID: "xyz", DisplayName: "X"}})
		})
	})

	Convey("Given a nil directory", t, func() {
		var dir *drivers.Directory
		So(dir.Name("x"), ShouldEqual, "x")
		So(dir.Len(), ShouldEqual, 0)
	})
}
