// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package taskfactory

import (
	"github.com/matt-FFFFFF/batchtask/internal/config"
	"github.com/matt-FFFFFF/batchtask/internal/task"
	"github.com/matt-FFFFFF/batchtask/internal/task/cluster"
	"github.com/matt-FFFFFF/batchtask/internal/task/local"
)

// Local is the worker-process pool on this host.
func Local() Platform {
	return Platform{
		Name:        local.Backend,
		Description: "run scripts as child processes on this host",
		New: func(def *config.Definition, deps Deps) (task.Task, error) {
			t, err := local.New(local.Config{
				Name:      def.Name,
				Scripts:   def.Scripts,
				Processes: def.Processes,
				Directory: def.Directory,
				Env:       def.Env,
				Reporter:  deps.Reporter,
			})
			if err != nil {
				return nil, err
			}

			return t, nil
		},
	}
}

// Slurm submits to Slurm with sbatch, as a job array for two or more scripts.
func Slurm() Platform {
	return Platform{
		Name:        cluster.SlurmBackend,
		Description: "submit to Slurm with sbatch, squeue and scancel",
		New: func(def *config.Definition, deps Deps) (task.Task, error) {
			t, err := cluster.New(clusterConfig(def, deps, cluster.Slurm{}))
			if err != nil {
				return nil, err
			}

			return t, nil
		},
		Attach: func(jobID int, deps Deps) (task.Task, error) {
			t, err := cluster.Attach(clusterConfig(&config.Definition{}, deps, cluster.Slurm{}), jobID)
			if err != nil {
				return nil, err
			}

			return t, nil
		},
	}
}

func clusterConfig(def *config.Definition, deps Deps, sched cluster.Scheduler) cluster.Config {
	return cluster.Config{
		Name:         def.Name,
		Scripts:      def.Scripts,
		Directory:    def.Directory,
		Processes:    def.Processes,
		Queue:        def.Queue,
		Dependency:   def.Dependency,
		MaxArraySize: def.MaxArraySize,
		Runtime:      def.RuntimeDuration(),
		Priority:     def.Priority,
		PollInterval: def.PollIntervalDuration(),
		Scheduler:    sched,
		Runner:       deps.Runner,
		Fs:           deps.Fs,
	}
}
