// Package publish distributes analysis reports to other systems.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// JSON marshals v and publishes it on subject.
func JSON(ctx context.Context, p Publisher, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not marshal %T: %w", v, err)
	}
	return p.Publish(ctx, subject, data)
}
