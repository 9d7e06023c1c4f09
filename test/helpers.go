package test

import (
	"go.uber.org/mock/gomock"
	"silo_bridge/logic"
	"strings"
)

// TaskFor matches the TaskParams of a task queued for one record key.
func TaskFor(key string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		params, ok := x.(logic.TaskParams)
		return ok && params.Key == key
	})
}

// IsTaskName checks the "<queue>-<hash>" shape of generated task names.
func IsTaskName(queue, name string) bool {
	hash, found := strings.CutPrefix(name, queue+"-")
	if !found || hash == "" {
		return false
	}
	for _, c := range hash {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}
