package question

import (
	"fmt"
	"strconv"

	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
)

// questionToHash converts a Question to a map for HSET.
func questionToHash(q domq.Question) map[string]string {
	return map[string]string{
		"id":             q.ID(),
		"title":          q.Title(),
		"reference_code": q.ReferenceCode(),
		"reference_dump": q.ReferenceDump(),
		"created_at":     strconv.FormatInt(q.CreatedAt(), 10),
		"updated_at":     strconv.FormatInt(q.UpdatedAt(), 10),
		"revision":       strconv.Itoa(q.Revision()),
	}
}

// questionFromHash restores a Question from HGETALL output.
func questionFromHash(m map[string]string) (domq.Question, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domq.Question{}, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := strconv.ParseInt(m["updated_at"], 10, 64)
	if err != nil {
		updatedAt = createdAt
	}
	revision, err := strconv.Atoi(m["revision"])
	if err != nil || revision < 1 {
		revision = 1
	}
	return domq.Reconstruct(
		m["id"], m["title"], m["reference_code"], m["reference_dump"],
		createdAt, updatedAt, revision,
	), nil
}
