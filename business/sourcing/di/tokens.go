// Package di contains dependency injection tokens for the sourcing context.
package di

import (
	"github.com/fd1az/fba-sourcing/business/sourcing/app"
	"github.com/fd1az/fba-sourcing/business/sourcing/infra/files"
	"github.com/fd1az/fba-sourcing/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Pipeline = di.NewToken[*app.Pipeline]("sourcing.Pipeline")
)

// Private tokens - internal to this module
var (
	TableWriter = di.NewToken[*files.Writer]("sourcing.TableWriter")
)

func GetPipeline(c di.ServiceRegistry) *app.Pipeline {
	return di.GetToken(c, Pipeline)
}

func GetTableWriter(c di.ServiceRegistry) *files.Writer {
	return di.GetToken(c, TableWriter)
}
