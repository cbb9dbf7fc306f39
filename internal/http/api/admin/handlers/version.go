package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/buildinfo"
)

// VersionResponse describes the running build.
type VersionResponse struct {
	CurrentVersion string `json:"current_version"`
	Commit         string `json:"commit,omitempty"`
	BuildDate      string `json:"build_date,omitempty"`
	GoVersion      string `json:"go_version"`
}

// GetVersion returns the running build's version.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		CurrentVersion: buildinfo.Version,
		Commit:         buildinfo.Commit,
		BuildDate:      buildinfo.BuildDate,
		GoVersion:      runtime.Version(),
	})
}
