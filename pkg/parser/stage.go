package parser

import (
	"fmt"
	"strconv"
)

// Stage is one FROM block of a rendered build file.
type Stage struct {
	Index    int
	Name     string // lowercased; empty for an unnamed stage
	Base     string // base reference as written
	Line     int
	Platform string

	// BaseStage is the index of the stage this one is based on, or -1 when
	// Base is an external image.
	BaseStage int
	// Deps lists the indexes of every stage this one needs, from FROM,
	// COPY --from and RUN --mount=from, in ascending order.
	Deps []int
}

// Ref returns the name used to refer to the stage: its name, or its
// ordinal when unnamed.
func (s *Stage) Ref() string {
	if s.Name != "" {
		return s.Name
	}
	return strconv.Itoa(s.Index)
}

func (s *Stage) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("stage %d", s.Index)
}

// External reports whether the stage starts from an image rather than from
// another stage.
func (s *Stage) External() bool {
	return s.BaseStage < 0
}
