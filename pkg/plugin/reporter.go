package plugin

import (
	"context"

	"github.com/lanescope/lanescope/pkg/models"
)

// Reporter sends decoded records to an output.
type Reporter interface {
	Plugin
	Report(ctx context.Context, rep *models.Report) error
	Flush(ctx context.Context) error
}
