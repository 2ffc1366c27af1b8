package scheduler

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const TaskLeadgenExtract = "leadgen.extract"

type ExtractPayload struct {
	SessionID string `json:"sessionId"`
}

func NewExtractTask(payload ExtractPayload) (*asynq.Task, error) {
	if payload.SessionID == "" {
		return nil, errors.New("session id is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadgenExtract, data), nil
}

func ParseExtractPayload(task *asynq.Task) (ExtractPayload, error) {
	var payload ExtractPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ExtractPayload{}, err
	}
	if payload.SessionID == "" {
		return ExtractPayload{}, errors.New("session id is required")
	}
	return payload, nil
}
