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

package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/sweagent/sweagent/services/api/trajectory"
)

var log = logrus.WithField("component", "trajectory/bolt")

type boltBackend struct {
	db       *bolt.DB
	filePath string
}

// Bucket structure is
//	runs        > {run_id}  > record            > {trajectory.RunRecord}
//	                        > steps             > {step_idx} > {trajectory.Step}
//	run_indices > run_idx   > {run_idx}         > {run_id}

var runsBucketName = []byte("runs")

var recordKey = []byte("record")

var stepsBucketName = []byte("steps")

var indicesBucketName = []byte("run_indices")

var runsIdxBucketName = []byte("run_idx")

func getRunsBucket(tx *bolt.Tx) *bolt.Bucket {
	runsBucket := tx.Bucket(runsBucketName)
	if runsBucket == nil {
		log.Fatal("runs bucket doesn't exist")
	}
	return runsBucket
}

func getRunsIdxBucket(tx *bolt.Tx) *bolt.Bucket {
	indicesBucket := tx.Bucket(indicesBucketName)
	if indicesBucket == nil {
		log.Fatal("indices bucket doesn't exist")
	}
	runsIdxBucket := indicesBucket.Bucket(runsIdxBucketName)
	if runsIdxBucket == nil {
		log.Fatal("runs idx bucket doesn't exist")
	}
	return runsIdxBucket
}

func serializeNumID(id uint64) []byte {
	// Format using a hex representation of a fixed length of 16 characters padded with 0
	return []byte(fmt.Sprintf("%016x", id))
}

func deserializeNumIDAsInt(value []byte) (int, error) {
	number, err := strconv.ParseInt(string(value), 16, 64)
	if err != nil {
		return 0, trajectory.NewUnexpectedError("unable to deserialize number id as an int (%w)", err)
	}
	return int(number), nil
}

func serializeRunID(runID string) []byte {
	return []byte(runID)
}

func deserializeRunID(value []byte) string {
	return string(value)
}

func serializeRecord(record *trajectory.RunRecord) ([]byte, error) {
	v, err := json.Marshal(record)
	if err != nil {
		return nil, trajectory.NewUnexpectedError("unable to serialize run record (%w)", err)
	}
	return v, nil
}

func deserializeRecord(v []byte) (*trajectory.RunRecord, error) {
	record := &trajectory.RunRecord{}
	err := json.Unmarshal(v, record)
	if err != nil {
		return nil, trajectory.NewUnexpectedError("unable to deserialize run record (%w)", err)
	}
	return record, nil
}

func serializeStep(step *trajectory.Step) ([]byte, error) {
	v, err := json.Marshal(step)
	if err != nil {
		return nil, trajectory.NewUnexpectedError("unable to serialize step (%w)", err)
	}
	return v, nil
}

func deserializeStep(v []byte) (trajectory.Step, error) {
	step := trajectory.Step{}
	err := json.Unmarshal(v, &step)
	if err != nil {
		return trajectory.Step{}, trajectory.NewUnexpectedError("unable to deserialize step (%w)", err)
	}
	return step, nil
}

// CreateBoltBackend creates a Backend backed by a bolt database file
func CreateBoltBackend(filePath string) (trajectory.Backend, error) {
	db, err := bolt.Open(filePath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, trajectory.NewUnexpectedError("unable to open the database file at %q (%w)", filePath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(runsBucketName); err != nil {
			return err
		}
		indicesBucket, err := tx.CreateBucketIfNotExists(indicesBucketName)
		if err != nil {
			return err
		}
		if _, err := indicesBucket.CreateBucketIfNotExists(runsIdxBucketName); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, trajectory.NewUnexpectedError("unable to initialize the database structure (%w)", err)
	}

	return &boltBackend{db: db, filePath: filePath}, nil
}

// Destroy closes the underlying database file
func (b *boltBackend) Destroy() {
	if err := b.db.Close(); err != nil {
		log.WithField("path", b.filePath).WithField("error", err).Error("unable to close the database")
	}
}

func (b *boltBackend) FilePath() string {
	return b.filePath
}

func (b *boltBackend) CreateRun(_ context.Context, record *trajectory.RunRecord) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		runsBucket := getRunsBucket(tx)
		runIDKey := serializeRunID(record.RunID)

		if runsBucket.Bucket(runIDKey) != nil {
			return &trajectory.RunAlreadyExistsError{RunID: record.RunID}
		}

		runIdx, err := runsBucket.NextSequence()
		if err != nil {
			return trajectory.NewUnexpectedError("unable to allocate a run index (%w)", err)
		}
		record.RunIdx = runIdx - 1 // indices start at 0

		runBucket, err := runsBucket.CreateBucket(runIDKey)
		if err != nil {
			return trajectory.NewUnexpectedError("unable to create the run bucket (%w)", err)
		}
		if _, err := runBucket.CreateBucket(stepsBucketName); err != nil {
			return trajectory.NewUnexpectedError("unable to create the steps bucket (%w)", err)
		}
		serializedRecord, err := serializeRecord(record)
		if err != nil {
			return err
		}
		if err := runBucket.Put(recordKey, serializedRecord); err != nil {
			return trajectory.NewUnexpectedError("unable to store the run record (%w)", err)
		}

		runsIdxBucket := getRunsIdxBucket(tx)
		if err := runsIdxBucket.Put(serializeNumID(record.RunIdx), runIDKey); err != nil {
			return trajectory.NewUnexpectedError("unable to index the run (%w)", err)
		}
		return nil
	})
}

func retrieveRecordTx(tx *bolt.Tx, runID string) (*bolt.Bucket, *trajectory.RunRecord, error) {
	runsBucket := getRunsBucket(tx)
	runBucket := runsBucket.Bucket(serializeRunID(runID))
	if runBucket == nil {
		return nil, nil, &trajectory.UnknownRunError{RunID: runID}
	}
	record, err := deserializeRecord(runBucket.Get(recordKey))
	if err != nil {
		return nil, nil, err
	}
	return runBucket, record, nil
}

func (b *boltBackend) RetrieveRun(_ context.Context, runID string) (*trajectory.RunRecord, error) {
	var record *trajectory.RunRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		_, record, err = retrieveRecordTx(tx, runID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (b *boltBackend) ListRuns(
	_ context.Context,
	fromRunIdx int,
	count int,
) (trajectory.RunsResult, error) {
	result := trajectory.RunsResult{Runs: []*trajectory.RunRecord{}, NextRunIdx: fromRunIdx}
	err := b.db.View(func(tx *bolt.Tx) error {
		runsBucket := getRunsBucket(tx)
		cursor := getRunsIdxBucket(tx).Cursor()

		if fromRunIdx < 0 {
			fromRunIdx = 0
			result.NextRunIdx = 0
		}

		key, value := cursor.Seek(serializeNumID(uint64(fromRunIdx)))
		for ; key != nil; key, value = cursor.Next() {
			if count > 0 && len(result.Runs) >= count {
				break
			}
			runBucket := runsBucket.Bucket(value)
			if runBucket == nil {
				// run deleted, its index slot remains
				continue
			}
			record, err := deserializeRecord(runBucket.Get(recordKey))
			if err != nil {
				return err
			}
			result.Runs = append(result.Runs, record)
			runIdx, err := deserializeNumIDAsInt(key)
			if err != nil {
				return err
			}
			result.NextRunIdx = runIdx + 1
		}
		return nil
	})
	if err != nil {
		return trajectory.RunsResult{}, err
	}
	return result, nil
}

func (b *boltBackend) UpdateRunStatus(
	_ context.Context,
	runID string,
	status trajectory.Status,
	result string,
) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		runBucket, record, err := retrieveRecordTx(tx, runID)
		if err != nil {
			return err
		}

		record.Status = status
		if result != "" {
			record.Result = result
		}
		if status.IsTerminal() && record.FinishedAt == nil {
			finishedAt := time.Now()
			record.FinishedAt = &finishedAt
		}

		serializedRecord, err := serializeRecord(record)
		if err != nil {
			return err
		}
		return runBucket.Put(recordKey, serializedRecord)
	})
}

func (b *boltBackend) AddSteps(_ context.Context, runID string, steps []trajectory.Step) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		runBucket, record, err := retrieveRecordTx(tx, runID)
		if err != nil {
			return err
		}
		stepsBucket := runBucket.Bucket(stepsBucketName)
		if stepsBucket == nil {
			return trajectory.NewUnexpectedError("steps bucket doesn't exist for run %q", runID)
		}

		for _, step := range steps {
			step.Index = record.StepsCount
			serializedStep, err := serializeStep(&step)
			if err != nil {
				return err
			}
			if err := stepsBucket.Put(serializeNumID(uint64(step.Index)), serializedStep); err != nil {
				return trajectory.NewUnexpectedError("unable to store a step (%w)", err)
			}
			record.StepsCount++
		}

		serializedRecord, err := serializeRecord(record)
		if err != nil {
			return err
		}
		return runBucket.Put(recordKey, serializedRecord)
	})
}

func (b *boltBackend) RetrieveSteps(_ context.Context, runID string) ([]trajectory.Step, error) {
	steps := []trajectory.Step{}
	err := b.db.View(func(tx *bolt.Tx) error {
		runBucket, _, err := retrieveRecordTx(tx, runID)
		if err != nil {
			return err
		}
		stepsBucket := runBucket.Bucket(stepsBucketName)
		if stepsBucket == nil {
			return trajectory.NewUnexpectedError("steps bucket doesn't exist for run %q", runID)
		}
		return stepsBucket.ForEach(func(_ []byte, value []byte) error {
			step, err := deserializeStep(value)
			if err != nil {
				return err
			}
			steps = append(steps, step)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}

func (b *boltBackend) DeleteRun(_ context.Context, runID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		runsBucket := getRunsBucket(tx)
		runIDKey := serializeRunID(runID)
		if runsBucket.Bucket(runIDKey) == nil {
			return &trajectory.UnknownRunError{RunID: runID}
		}
		if err := runsBucket.DeleteBucket(runIDKey); err != nil {
			return trajectory.NewUnexpectedError("unable to delete the run bucket (%w)", err)
		}
		return nil
	})
}
