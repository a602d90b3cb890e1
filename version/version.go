// Package version holds build metadata, set at link time:
//
//	go build -ldflags "-X github.com/jackzampolin/tocsmith/version.GitRelease=v0.1.0 \
//	  -X github.com/jackzampolin/tocsmith/version.GitCommit=$(git rev-parse HEAD)"
package version

import (
	"fmt"
	"runtime"
)

var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)
