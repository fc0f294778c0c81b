package version

import "fmt"

// set by -ldflags at build time
var (
	gitVersion = "v0.0.0-unknown"
	gitCommit  = ""
	buildDate  = ""
)

type Version struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
}

func Get() Version {
	return Version{
		GitVersion: gitVersion,
		GitCommit:  gitCommit,
		BuildDate:  buildDate,
	}
}

func (v Version) String() string {
	if v.GitCommit == "" {
		return v.GitVersion
	}
	return fmt.Sprintf("%s+%s", v.GitVersion, v.GitCommit)
}
