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

// Package api implements a client for the SWE-agent API service.
package api

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

const runTokenHeaderKey = "Swe-Agent-Run-Token"

type Client struct {
	resty *resty.Client
}

func NewClient(baseURL string) *Client {
	restyClient := resty.New()
	restyClient.SetBaseURL(baseURL)
	return &Client{resty: restyClient}
}

// apiError is the error payload rendered by the service for every failed request.
type apiError struct {
	Message string `json:"message"`
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Message != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Message, resp.StatusCode())
		}
		return fmt.Errorf("unexpected status %d (%s)", resp.StatusCode(), resp.Body())
	}
	return nil
}

type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (client *Client) Health(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{}
	resp, err := client.resty.R().
		SetContext(ctx).
		SetResult(status).
		SetError(&apiError{}).
		Get("/health")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return status, nil
}

type VersionInfo struct {
	Version     string `json:"version"`
	VersionHash string `json:"version_hash"`
}

func (client *Client) Version(ctx context.Context) (*VersionInfo, error) {
	info := &VersionInfo{}
	resp, err := client.resty.R().
		SetContext(ctx).
		SetResult(info).
		SetError(&apiError{}).
		Get("/version")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return info, nil
}

type RunSubmission struct {
	ProblemStatement string `json:"problem_statement"`
	InstanceID       string `json:"instance_id,omitempty"`
	Repo             string `json:"repo,omitempty"`
	ModelName        string `json:"model_name,omitempty"`
	Config           string `json:"config,omitempty"`
}

type RunAccepted struct {
	Message    string `json:"message"`
	RunID      string `json:"run_id"`
	InstanceID string `json:"instance_id"`
	Status     string `json:"status"`
	Token      string `json:"token"`
}

func (client *Client) SubmitRun(ctx context.Context, submission RunSubmission) (*RunAccepted, error) {
	accepted := &RunAccepted{}
	resp, err := client.resty.R().
		SetContext(ctx).
		SetBody(submission).
		SetResult(accepted).
		SetError(&apiError{}).
		Post("/run")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return accepted, nil
}

type BatchRunResult struct {
	Status  string `json:"status"`
	Total   int    `json:"total"`
	Results []struct {
		RunID      string `json:"run_id"`
		InstanceID string `json:"instance_id"`
		Status     string `json:"status"`
		Token      string `json:"token"`
		Error      string `json:"error"`
	} `json:"results"`
}

func (client *Client) SubmitBatchRun(ctx context.Context, submissions []RunSubmission) (*BatchRunResult, error) {
	result := &BatchRunResult{}
	resp, err := client.resty.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"problems": submissions}).
		SetResult(result).
		SetError(&apiError{}).
		Post("/batch-run")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return result, nil
}

// StopRun requests the cancellation of a running agent. The token is the one
// returned on submission, it is only required when the service enforces one.
func (client *Client) StopRun(ctx context.Context, runID string, token string) error {
	request := client.resty.R().
		SetContext(ctx).
		SetError(&apiError{})
	if token != "" {
		request.SetHeader(runTokenHeaderKey, token)
	}
	resp, err := request.Post(fmt.Sprintf("/run/%s/stop", runID))
	return checkResponse(resp, err)
}

type TrajectoriesPage struct {
	Runs       []*trajectory.RunRecord `json:"runs"`
	NextRunIdx int                     `json:"next_run_idx"`
}

func (client *Client) ListTrajectories(ctx context.Context, fromRunIdx int, count int) (*TrajectoriesPage, error) {
	page := &TrajectoriesPage{}
	resp, err := client.resty.R().
		SetContext(ctx).
		SetQueryParam("from_run_idx", fmt.Sprintf("%d", fromRunIdx)).
		SetQueryParam("count", fmt.Sprintf("%d", count)).
		SetResult(page).
		SetError(&apiError{}).
		Get("/trajectories")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return page, nil
}

func (client *Client) GetTrajectory(ctx context.Context, runID string) (*trajectory.RunRecord, error) {
	record := &trajectory.RunRecord{}
	resp, err := client.resty.R().
		SetContext(ctx).
		SetResult(record).
		SetError(&apiError{}).
		Get(fmt.Sprintf("/trajectory/%s", runID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return record, nil
}

type TrajectoryFile struct {
	Run   *trajectory.RunRecord `json:"run"`
	Steps []trajectory.Step     `json:"steps"`
}

func (client *Client) GetTrajectoryFile(ctx context.Context, runID string) (*TrajectoryFile, error) {
	file := &TrajectoryFile{}
	resp, err := client.resty.R().
		SetContext(ctx).
		SetResult(file).
		SetError(&apiError{}).
		Get(fmt.Sprintf("/trajectory/%s/file", runID))
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return file, nil
}
