package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingPrerequisites(t *testing.T) {
	g := NewPrerequisiteGraph()
	g.AddPrerequisite("CS301", "CS101")
	g.AddPrerequisite("CS301", "MA101")
	g.AddPrerequisite("CS301", "MA101")

	assert.Equal(t, []string{"CS101", "MA101"}, g.Prerequisites("CS301"))
	assert.Equal(t, []string{"CS101", "MA101"}, g.MissingPrerequisites("CS301", PassedSet()))
	assert.Equal(t, []string{"MA101"}, g.MissingPrerequisites("CS301", PassedSet("CS101")))
	assert.Equal(t, []string{"CS101"}, g.MissingPrerequisites("CS301", PassedSet("MA101")))
	assert.Empty(t, g.MissingPrerequisites("CS301", PassedSet("CS101", "MA101")))
	assert.True(t, g.Satisfied("CS301", PassedSet("CS101", "MA101", "PH101")))
}

func TestCourseWithoutPrerequisitesIsSatisfied(t *testing.T) {
	g := NewPrerequisiteGraph()
	assert.Empty(t, g.Prerequisites("CS101"))
	assert.True(t, g.Satisfied("CS101", nil))
}

func TestCyclesDoNotLoop(t *testing.T) {
	g := NewPrerequisiteGraph()
	g.AddPrerequisite("A", "B")
	g.AddPrerequisite("B", "A")
	g.AddPrerequisite("", "A")

	assert.Equal(t, []string{"B"}, g.MissingPrerequisites("A", nil))
	assert.True(t, g.Satisfied("A", PassedSet("B")))
	assert.Empty(t, g.Prerequisites(""))
}
