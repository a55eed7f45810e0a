// Package version carries build metadata set with
//
//	go build -ldflags "-X github.com/TeamNorCal/ledserver/version.GitHash=$(git rev-parse HEAD) -X github.com/TeamNorCal/ledserver/version.BuildTime=$(date -u +%FT%TZ)"
package version

var (
	// BuildTime is the UTC time the binary was built
	BuildTime string
	// GitHash is the commit the binary was built from
	GitHash string
)
