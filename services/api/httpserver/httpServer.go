// Copyright 2026 The SWE-agent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"

	"github.com/sweagent/sweagent/services/api/runs"
	"github.com/sweagent/sweagent/services/api/trajectory"
	"github.com/sweagent/sweagent/version"
)

var log = logrus.WithField("component", "httpserver")

const serviceName = "swe-agent-api"

const runTokenHeaderKey = "Swe-Agent-Run-Token"

const defaultFileCacheSize = 64

type Server struct {
	http.Server
	manager   *runs.Manager
	backend   trajectory.Backend
	secret    string
	fileCache *lru.Cache

	gin *gin.Engine
}

func New(
	host string,
	port uint,
	manager *runs.Manager,
	backend trajectory.Backend,
	secret string,
	fileCacheSize int,
) (*Server, error) {
	// Debug mode can be helpful during development
	gin.SetMode(gin.ReleaseMode)

	if fileCacheSize <= 0 {
		fileCacheSize = defaultFileCacheSize
	}
	fileCache, err := lru.New(fileCacheSize)
	if err != nil {
		return nil, err
	}

	ginEngine := gin.New()

	server := &Server{
		Server: http.Server{
			Addr:    fmt.Sprintf("%s:%d", host, port),
			Handler: ginEngine,
		},
		manager:   manager,
		backend:   backend,
		secret:    secret,
		fileCache: fileCache,
		gin:       ginEngine,
	}

	server.gin.HandleMethodNotAllowed = true

	// Allows all origins
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowHeaders(runTokenHeaderKey)

	server.gin.Use(cors.New(corsConfig))

	// Use a custom error handler
	server.gin.Use(ginErrorHandlerMiddleware)

	// Use the custom logger middleware
	server.gin.Use(ginLoggerMiddleware)

	// Recovery middleware recovers from any panics and writes a 500 if there was one.
	server.gin.Use(gin.Recovery())

	server.gin.GET("/health", server.getHealth)
	server.gin.GET("/version", server.getVersion)
	server.gin.GET("/info", server.getInfo)

	server.gin.POST("/run", server.submitRun)
	server.gin.POST("/batch-run", server.submitBatchRun)
	server.gin.POST("/run/:run_id/stop", server.stopRun)

	server.gin.GET("/trajectories", server.listTrajectories)
	server.gin.GET("/trajectory/:run_id", server.getTrajectory)
	server.gin.GET("/trajectory/:run_id/file", server.getTrajectoryFile)

	ginEngine.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, fmt.Errorf("not found"))
	})

	ginEngine.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	})

	return server, nil
}

func (server *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (server *Server) getVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":      version.Version,
		"version_hash": version.Hash,
	})
}

func (server *Server) getInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": serviceName,
		"version": version.Version,
		"endpoints": gin.H{
			"/health":                   "GET - Health check",
			"/version":                  "GET - Get version",
			"/info":                     "GET - Get this info",
			"/run":                      "POST - Submit an agent run",
			"/batch-run":                "POST - Submit several agent runs",
			"/run/{run_id}/stop":        "POST - Stop an agent run",
			"/trajectories":             "GET - List runs",
			"/trajectory/{run_id}":      "GET - Get one run",
			"/trajectory/{run_id}/file": "GET - Get the full trajectory of a run",
		},
	})
}

type runRequest struct {
	ProblemStatement string `json:"problem_statement"`
	InstanceID       string `json:"instance_id"`
	Repo             string `json:"repo"`
	ModelName        string `json:"model_name"`
	ConfigPath       string `json:"config"`
}

func (request runRequest) submission() runs.Submission {
	submission := runs.Submission{}
	copier.Copy(&submission, &request)
	return submission
}

func (server *Server) startOneRun(c *gin.Context, request runRequest) (*trajectory.RunRecord, string, error) {
	record, err := server.manager.StartRun(c, request.submission())
	if err != nil {
		return nil, "", err
	}

	token := ""
	if server.secret != "" {
		token, err = MakeAndSerializeToken(record.RunID, server.secret)
		if err != nil {
			return nil, "", err
		}
	}
	return record, token, nil
}

func (server *Server) submitRun(c *gin.Context) {
	var request runRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	log.WithFields(logrus.Fields{
		"instance_id": request.InstanceID,
		"model_name":  request.ModelName,
	}).Info("starting run")

	record, token, err := server.startOneRun(c, request)
	if err != nil {
		var invalidErr *runs.InvalidSubmissionError
		if errors.As(err, &invalidErr) {
			abortWithError(c, http.StatusBadRequest, err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	response := gin.H{
		"message":     fmt.Sprintf("Run [%s] started", record.RunID),
		"run_id":      record.RunID,
		"instance_id": record.InstanceID,
		"status":      record.Status,
	}
	if token != "" {
		response["token"] = token
	}
	c.JSON(http.StatusAccepted, response)
}

type batchRunRequest struct {
	Problems []runRequest `json:"problems"`
}

func (server *Server) submitBatchRun(c *gin.Context) {
	var request batchRunRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if len(request.Problems) == 0 {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("problems must be a non-empty list"))
		return
	}

	log.WithField("nb_problems", len(request.Problems)).Info("starting batch run")

	results := make([]gin.H, 0, len(request.Problems))
	for _, problem := range request.Problems {
		record, token, err := server.startOneRun(c, problem)
		if err != nil {
			results = append(results, gin.H{
				"instance_id": problem.InstanceID,
				"status":      "error",
				"error":       err.Error(),
			})
			continue
		}
		result := gin.H{
			"run_id":      record.RunID,
			"instance_id": record.InstanceID,
			"status":      record.Status,
		}
		if token != "" {
			result["token"] = token
		}
		results = append(results, result)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "batch-complete",
		"total":   len(results),
		"results": results,
	})
}

func (server *Server) checkRunToken(c *gin.Context, runID string) error {
	if server.secret == "" {
		return nil
	}

	tokenStr := c.GetHeader(runTokenHeaderKey)
	claims, err := ParseAndVerifyToken(tokenStr, server.secret)
	if err != nil {
		return wrapError(
			http.StatusUnauthorized,
			fmt.Errorf("unable to validate token from header [%s] (%w)", runTokenHeaderKey, err),
		)
	}
	if claims.RunID != runID {
		return wrapError(
			http.StatusUnauthorized,
			fmt.Errorf("provided token doesn't match run [%s]", runID),
		)
	}
	return nil
}

func (server *Server) stopRun(c *gin.Context) {
	runID := c.Param("run_id")

	if err := server.checkRunToken(c, runID); err != nil {
		var httpErr httpError
		if errors.As(err, &httpErr) {
			abortWithError(c, httpErr.StatusCode, httpErr.Err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	log.WithField("run_id", runID).Info("stopping run")

	if err := server.manager.StopRun(c, runID); err != nil {
		var unknownErr *trajectory.UnknownRunError
		var finishedErr *runs.RunFinishedError
		switch {
		case errors.As(err, &unknownErr):
			abortWithError(c, http.StatusNotFound, err)
		case errors.As(err, &finishedErr):
			abortWithError(c, http.StatusConflict, err)
		default:
			abortWithError(c, http.StatusInternalServerError, err)
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": fmt.Sprintf("Run [%s] stopping", runID),
		"run_id":  runID,
	})
}

func (server *Server) listTrajectories(c *gin.Context) {
	fromRunIdx, err := strconv.Atoi(c.DefaultQuery("from_run_idx", "0"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid from_run_idx: %w", err))
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", "0"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid count: %w", err))
		return
	}

	result, err := server.backend.ListRuns(c, fromRunIdx, count)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":         result.Runs,
		"next_run_idx": result.NextRunIdx,
	})
}

func (server *Server) getTrajectory(c *gin.Context) {
	runID := c.Param("run_id")

	record, err := server.backend.RetrieveRun(c, runID)
	if err != nil {
		var unknownErr *trajectory.UnknownRunError
		if errors.As(err, &unknownErr) {
			abortWithError(c, http.StatusNotFound, err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

type trajectoryFile struct {
	Run   *trajectory.RunRecord `json:"run"`
	Steps []trajectory.Step     `json:"steps"`
}

func (server *Server) getTrajectoryFile(c *gin.Context) {
	runID := c.Param("run_id")

	if cached, ok := server.fileCache.Get(runID); ok {
		c.JSON(http.StatusOK, cached.(*trajectoryFile))
		return
	}

	record, err := server.backend.RetrieveRun(c, runID)
	if err != nil {
		var unknownErr *trajectory.UnknownRunError
		if errors.As(err, &unknownErr) {
			abortWithError(c, http.StatusNotFound, err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	steps, err := server.backend.RetrieveSteps(c, runID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	file := &trajectoryFile{Run: record, Steps: steps}

	// Only finished trajectories are stable enough to cache
	if record.Status.IsTerminal() {
		server.fileCache.Add(runID, file)
	}

	c.JSON(http.StatusOK, file)
}
