package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRoadmapRequest(t *testing.T) {
	positive := []string{
		"I need a roadmap for backend",
		"show me the road map",
		"what's the learning path for AI",
		"how to learn frontend development",
		"عايز اتعلم باك اند",
		"ازاي اتعلم برمجة",
		"ايه هو مسار تعلم الفرونت",
		"عندك رود ماب للموبايل؟",
		"Can you guide me",
	}
	for _, q := range positive {
		assert.True(t, IsRoadmapRequest(q), "expected roadmap intent: %q", q)
	}

	negative := []string{
		"what are the tuition fees",
		"hello",
		"ايه هي مواعيد التقديم",
		"tell me about the university",
	}
	for _, q := range negative {
		assert.False(t, IsRoadmapRequest(q), "expected FAQ intent: %q", q)
	}
}

func TestIsRoadmapRequestCaseInsensitive(t *testing.T) {
	assert.True(t, IsRoadmapRequest("ROADMAP for devops"))
	assert.True(t, IsRoadmapRequest("Learning Path please"))
}
