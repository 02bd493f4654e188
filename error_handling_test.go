package govconv_test

import (
	"errors"
	"testing"

	"github.com/GreatValueCreamSoda/govconv"
)

func Test_ErrKind_IsNone(t *testing.T) {
	if !govconv.ErrNone.IsNone() {
		t.Fatal("ErrNone should report IsNone() == true")
	}
	if govconv.ErrOddDimensions.IsNone() {
		t.Fatal("non-zero ErrKind should report IsNone() == false")
	}
}

func Test_PlanError_ErrorsIs(t *testing.T) {
	err := error(&govconv.PlanError{Kind: govconv.ErrOddDimensions, Detail: "97x96"})
	if !errors.Is(err, govconv.ErrOddDimensions) {
		t.Fatal("errors.Is(err, ErrOddDimensions) should be true")
	}
	if errors.Is(err, govconv.ErrFamilyMismatch) {
		t.Fatal("errors.Is(err, ErrFamilyMismatch) should be false")
	}
}

func Test_PlanError_Error(t *testing.T) {
	err := &govconv.PlanError{Kind: govconv.ErrOddDimensions, Detail: "97x96"}
	want := "odd dimensions: 97x96"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
