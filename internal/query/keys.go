package query

import (
	"fmt"
	"strings"

	"studytracker/backend/internal/model"
)

// Cache keys name logical resources. A key followed by "/" is the root of a
// family: invalidating "sessions" also drops "sessions/range/..." and
// "sessions/subject/...".
const (
	keySubjects  = "subjects"
	keySessions  = "sessions"
	keyDailyGoal = "dailyGoal"
)

func sessionsRangeKey(start, end model.Timestamp) string {
	return fmt.Sprintf("%s/range/%d/%d", keySessions, start, end)
}

func sessionsSubjectKey(subjectID string) string {
	return keySessions + "/subject/" + subjectID
}

// covers reports whether invalidating root drops key.
func covers(root, key string) bool {
	return key == root || strings.HasPrefix(key, root+"/")
}

// roots lists every family key that covers key, key itself included.
func roots(key string) []string {
	parts := strings.Split(key, "/")
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, strings.Join(parts[:i+1], "/"))
	}
	return out
}

type op string

const (
	opAddSubject       op = "addSubject"
	opEditSubject      op = "editSubject"
	opRemoveSubject    op = "removeSubject"
	opRecordSession    op = "recordSession"
	opSetDailyGoal     op = "setDailyGoal"
	opSetTimeBasedGoal op = "setTimeBasedGoal"
	opSetTaskBasedGoal op = "setTaskBasedGoal"
)

// invalidations is the set of reads each mutation makes stale.
var invalidations = map[op][]string{
	opAddSubject:       {keySubjects},
	opEditSubject:      {keySubjects},
	opRemoveSubject:    {keySubjects, keySessions},
	opRecordSession:    {keySessions},
	opSetDailyGoal:     {keyDailyGoal},
	opSetTimeBasedGoal: {keyDailyGoal},
	opSetTaskBasedGoal: {keyDailyGoal},
}

type outcome struct {
	success string
	failure string
	// useRemoteMessage surfaces the store's own message on failure when it has one.
	useRemoteMessage bool
}

var outcomes = map[op]outcome{
	opAddSubject:       {"Subject added successfully", "Failed to add subject", true},
	opEditSubject:      {"Subject updated successfully", "Failed to update subject", true},
	opRemoveSubject:    {"Subject deleted successfully", "Failed to delete subject", true},
	opRecordSession:    {"Session saved successfully", "Failed to save session", false},
	opSetDailyGoal:     {"Daily goal saved successfully", "Failed to save goal", false},
	opSetTimeBasedGoal: {"Daily goal saved successfully", "Failed to save goal", false},
	opSetTaskBasedGoal: {"Daily goal saved successfully", "Failed to save goal", false},
}
