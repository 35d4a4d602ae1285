package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	job := NewJob("abc123")

	assert.Equal(t, "abc123", job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Nil(t, job.ProductInfo)
	assert.Nil(t, job.Result)
	assert.False(t, job.IsTerminal())
}

func TestSetProgressMonotonic(t *testing.T) {
	job := NewJob("j1")

	job.SetProgress("analyzing", 12)
	assert.Equal(t, 12, job.Progress)

	job.SetProgress("scripting", 22)
	assert.Equal(t, 22, job.Progress)

	// A lower value never moves progress backwards; the step label still updates
	job.SetProgress("fallback render", 10)
	assert.Equal(t, 22, job.Progress)
	assert.Equal(t, "fallback render", job.Step)
}

func TestJobClone(t *testing.T) {
	job := NewJob("j2")
	job.ProductInfo = &ProductInfo{Title: "Váy bé gái", Gender: "bé gái"}
	job.Result = &RenderResult{
		Script:   "script",
		Captions: []string{"a", "b", "c"},
		Hashtags: []string{"#x", "#y", "#z"},
	}

	clone := job.Clone()
	require.NotSame(t, job, clone)
	require.NotSame(t, job.ProductInfo, clone.ProductInfo)
	require.NotSame(t, job.Result, clone.Result)

	clone.ProductInfo.Title = "changed"
	clone.Result.Captions[0] = "changed"
	assert.Equal(t, "Váy bé gái", job.ProductInfo.Title)
	assert.Equal(t, "a", job.Result.Captions[0])
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
	}{
		{JobStatusPending, false},
		{JobStatusProcessing, false},
		{JobStatusDone, true},
		{JobStatusError, true},
	}

	for _, tt := range tests {
		job := NewJob("x")
		job.Status = tt.status
		assert.Equal(t, tt.terminal, job.IsTerminal(), "status %s", tt.status)
	}
}

func TestSignalsInfo(t *testing.T) {
	s := &ProductSignals{
		Title:    "Áo thun bé trai",
		Price:    "99.000đ",
		Gender:   "bé trai",
		AgeLabel: "4–6 tuổi",
		Platform: "Shopee",
	}

	info := s.Info()
	assert.Equal(t, "Áo thun bé trai", info.Title)
	assert.Equal(t, "99.000đ", info.Price)
	assert.Equal(t, "bé trai", info.Gender)
	assert.Equal(t, "4–6 tuổi", info.Age)
	assert.Equal(t, "Shopee", info.Platform)
}

func TestCatalogDefaults(t *testing.T) {
	assert.Equal(t, Avatars[0].ID, DefaultAvatarID())
	assert.Equal(t, Voices[0].ID, DefaultVoiceID())

	assert.True(t, IsKnownAvatar("Abigail_expressive_2024112501"))
	assert.False(t, IsKnownAvatar("nope"))
	assert.True(t, IsKnownVoice("vi-VN-HoaiMyNeural"))
	assert.False(t, IsKnownVoice(""))
}
