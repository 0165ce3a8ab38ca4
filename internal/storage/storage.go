// Package storage abstracts where extracted answer images live. The
// segmentation engine only depends on the ImageStore interface; local
// disk is the dev default and Qiniu Kodo backs production deployments.
package storage

import (
	"context"
	"fmt"
)

// ImageStore persists answer images under deterministic keys.
type ImageStore interface {
	// Save writes data under key and returns the public path/URL the
	// image will be served from.
	Save(ctx context.Context, key string, data []byte) (string, error)
	// DeletePrefix removes every object whose key starts with prefix.
	// Used as compensating cleanup for a failed extraction batch.
	DeletePrefix(ctx context.Context, prefix string) error
}

// AnswerImageKey is the collision-free key for one extracted answer:
// one exam directory, one file per (student, question).
func AnswerImageKey(examID, studentID string, orderNum int) string {
	return fmt.Sprintf("%s/%s_q%d.jpg", AnswerPrefix(examID), studentID, orderNum)
}

// AnswerPrefix is the key prefix holding all of an exam's answer images.
func AnswerPrefix(examID string) string {
	return "answers/" + examID
}

// PaperImageKey is the key for an exam's reference paper upload.
func PaperImageKey(examID, ext string) string {
	return PaperPrefix(examID) + "/paper" + ext
}

// PaperPrefix is the key prefix holding an exam's paper upload.
func PaperPrefix(examID string) string {
	return "papers/" + examID
}
