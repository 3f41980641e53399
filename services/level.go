package services

import (
	"math"
)

// BaseXPPerLevel scales the quadratic level curve: level n starts at n²×50 XP.
const BaseXPPerLevel = 50

// XPForLevel returns the total XP at which the given level begins.
func XPForLevel(level int) int64 {
	if level < 0 {
		return 0
	}
	return int64(level) * int64(level) * BaseXPPerLevel
}

// LevelForXP returns the highest level whose threshold the given XP meets.
// The float inversion is only a starting guess; the correction loops make the
// result agree with XPForLevel exactly at every boundary.
func LevelForXP(xp int64) int {
	if xp <= 0 {
		return 0
	}
	level := int(math.Sqrt(float64(xp) / BaseXPPerLevel))
	for XPForLevel(level+1) <= xp {
		level++
	}
	for level > 0 && XPForLevel(level) > xp {
		level--
	}
	return level
}

// LevelProgress describes how far a user is through their current level.
type LevelProgress struct {
	Level            int     `json:"level"`
	CurrentLevelXP   int64   `json:"current_level_xp"`
	NextLevelXP      int64   `json:"next_level_xp"`
	XPInCurrentLevel int64   `json:"xp_in_current_level"`
	XPNeeded         int64   `json:"xp_needed"`
	ProgressPercent  float64 `json:"progress_percent"`
}

// ProgressForXP derives the level-progress view from a total XP sum.
// ProgressPercent is clamped to [0,100] for display safety.
func ProgressForXP(xp int64) LevelProgress {
	if xp < 0 {
		xp = 0
	}
	level := LevelForXP(xp)
	current := XPForLevel(level)
	next := XPForLevel(level + 1)

	inLevel := xp - current
	span := next - current
	percent := 0.0
	if span > 0 {
		percent = float64(inLevel) / float64(span) * 100
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return LevelProgress{
		Level:            level,
		CurrentLevelXP:   current,
		NextLevelXP:      next,
		XPInCurrentLevel: inLevel,
		XPNeeded:         next - xp,
		ProgressPercent:  percent,
	}
}
