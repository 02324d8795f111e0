// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"os"

	"github.com/sirupsen/logrus"
)

func init() {
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)

	logrus.SetFormatter(&logrus.JSONFormatter{})
}

// SetFormatter lets caller set logrus log formatter.
func SetFormatter(formatter logrus.Formatter) {
	logrus.SetFormatter(formatter)
}

// SetLogLevel sets logrus log level.
// Coverage session details are logged at debug level.
func SetLogLevel(level logrus.Level) {
	logrus.SetLevel(level)
}
