// Copyright 2026 Cyborg Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyborghq/cyborg/internal/engine/config"
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/engine/service"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/pkg/cache"
	"github.com/cyborghq/cyborg/pkg/database"
	"github.com/cyborghq/cyborg/pkg/http/middleware"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConf()
		if err != nil {
			return err
		}
		db, closeDB, err := openDatabase(conf)
		if err != nil {
			return err
		}
		defer closeDB()
		if err := repo.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Infow("database schema migrated", "driver", conf.Database.Driver)
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Requeue action plans stuck in pending once",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConf()
		if err != nil {
			return err
		}
		if conf.Queue.Backend != queue.BackendRedis {
			return errors.New("sweep needs the redis queue backend so that the server workers see the tasks")
		}
		db, closeDB, err := openDatabase(conf)
		if err != nil {
			return err
		}
		defer closeDB()

		redisConf := conf.Redis
		redisConf.Enabled = true
		client, closeRedis, err := cache.ProvideRedis(redisConf)
		if err != nil {
			return err
		}
		defer closeRedis()
		q, err := queue.NewQueue(conf.Queue, client)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		n, err := service.NewPlanSweeper(conf.Sweeper, conf.AI.AttemptBudget(), repo.NewRepositories(db), q).Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "requeued %d action plan(s)\n", n)
		return nil
	},
}

var (
	tokenUserId   string
	tokenUserType string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConf()
		if err != nil {
			return err
		}
		if tokenUserId == "" {
			return errors.New("--user is required")
		}
		token, err := middleware.SignToken(conf.Http.Auth, tokenUserId, tokenUserType)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserId, "user", "", "user id carried in the token")
	tokenCmd.Flags().StringVar(&tokenUserType, "type", "user", "user type carried in the token")
}

func loadConf() (*config.AppConfig, error) {
	conf, err := config.LoadConfigFile(configFile)
	if err != nil {
		return nil, err
	}
	logger, err := log.NewLog(&conf.Log)
	if err != nil {
		return nil, err
	}
	log.SetLogger(logger)
	return &conf, nil
}

func openDatabase(conf *config.AppConfig) (database.IDatabase, func(), error) {
	m, err := database.NewManager(conf.Database)
	if err != nil {
		return nil, nil, err
	}
	return database.NewDatabaseAdapter(m), func() { _ = m.Close() }, nil
}
