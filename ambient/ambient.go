// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package ambient discovers awssig.Credentials from the environment
// and the standard AWS config/credentials files. It is deliberately
// not imported by the core awssig package: credential acquisition is
// an external collaborator, and callers who already have credentials
// from elsewhere never need to link this in.
package ambient

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lattice-labs/awssig"
)

// Creds finds AWS credentials and a default region from:
//
//  1. AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_SESSION_TOKEN,
//     and AWS_REGION/AWS_DEFAULT_REGION environment variables
//     (AWS_REGION takes precedence over AWS_DEFAULT_REGION).
//  2. The config files at $HOME/.aws/config and
//     $HOME/.aws/credentials.
//
// Creds additionally respects AWS_CONFIG_FILE, AWS_SHARED_CREDENTIALS_FILE
// and AWS_PROFILE/AWS_DEFAULT_PROFILE (profile name, default "default").
//
// NOTE: in general it is a bad idea to use do-what-I-mean credential
// discovery, since it is easy to accidentally pick up the wrong
// secret. Prefer wiring credentials explicitly where possible; this
// exists for CLIs and ad hoc tooling where that isn't practical.
func Creds() (creds awssig.Credentials, region string, err error) {
	envdefault := func(env ...string) string {
		for _, e := range env {
			if x := os.Getenv(e); x != "" {
				return x
			}
		}
		return ""
	}

	creds.AccessKeyID = envdefault("AWS_ACCESS_KEY_ID")
	creds.SecretAccessKey = envdefault("AWS_SECRET_ACCESS_KEY")
	creds.SessionToken = envdefault("AWS_SESSION_TOKEN")
	region = envdefault("AWS_REGION", "AWS_DEFAULT_REGION")

	home, err := os.UserHomeDir()
	if err != nil {
		return awssig.Credentials{}, "", fmt.Errorf("trying to find $HOME: %w", err)
	}

	profile := envdefault("AWS_PROFILE", "AWS_DEFAULT_PROFILE")
	if profile == "" {
		profile = "default"
	}

	// file locations per https://docs.aws.amazon.com/sdkref/latest/guide/file-location.html
	configFile := envdefault("AWS_CONFIG_FILE")
	if configFile == "" {
		configFile = filepath.Join(home, ".aws", "config")
	}
	credentialsFile := envdefault("AWS_SHARED_CREDENTIALS_FILE")
	if credentialsFile == "" {
		credentialsFile = filepath.Join(home, ".aws", "credentials")
	}

	if region == "" {
		f, err := os.Open(configFile)
		if err != nil {
			return awssig.Credentials{}, "", err
		}
		defer f.Close()

		var ssoStartURL string
		err = scan(f, fmt.Sprintf("profile %s", profile), []scanspec{
			{"region", &region},
			{"sso_start_url", &ssoStartURL},
		})
		if err != nil {
			return awssig.Credentials{}, "", err
		}
		if ssoStartURL != "" {
			return awssig.Credentials{}, "", errors.New("ambient: SSO profiles are not supported")
		}
	}

	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		f, err := os.Open(credentialsFile)
		if err != nil {
			return awssig.Credentials{}, "", err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return awssig.Credentials{}, "", fmt.Errorf("examining credentials: %w", err)
		}
		if err := checkPermissions(info); err != nil {
			return awssig.Credentials{}, "", err
		}

		err = scan(f, profile, []scanspec{
			{"aws_access_key_id", &creds.AccessKeyID},
			{"aws_secret_access_key", &creds.SecretAccessKey},
		})
		if err != nil {
			return awssig.Credentials{}, "", err
		}
		// a static credentials file never carries a session token
		creds.SessionToken = ""
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return awssig.Credentials{}, "", errors.New("ambient: unable to determine access key id or secret access key")
	}
	if region == "" {
		return awssig.Credentials{}, "", errors.New("ambient: unable to determine region")
	}
	return creds, region, nil
}

type scanspec struct {
	prefix string
	dst    *string
}

func isSection(line, section string, matched bool) bool {
	line = strings.TrimSpace(line)
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return matched
	}
	return section == strings.TrimSpace(line[1:len(line)-1])
}

func scan(in io.Reader, section string, into []scanspec) error {
	s := bufio.NewScanner(in)
	matched := false
	for s.Scan() && len(into) > 0 {
		line := strings.TrimSpace(s.Text())
		matched = isSection(line, section, matched)
		if !matched {
			continue
		}
		for i := 0; i < len(into); i++ {
			before, after, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			before = strings.TrimSpace(before)
			if before == into[i].prefix {
				*into[i].dst = strings.TrimSpace(after)
				into[i], into = into[len(into)-1], into[:len(into)-1]
			}
		}
	}
	if len(into) > 0 {
		return s.Err()
	}
	return nil
}

// checkPermissions rejects a credentials file that is writable by
// the world or is a special file (device, pipe, socket, symlink,
// ...). A directory passes this check.
func checkPermissions(info fs.FileInfo) error {
	mode := info.Mode()
	if mode&2 != 0 {
		return fmt.Errorf("ambient: %s is world-writeable %o", info.Name(), mode)
	}
	if kind := mode & fs.ModeType; kind != fs.ModeDir && kind != 0 {
		return fmt.Errorf("ambient: %s is a special file", info.Name())
	}
	return nil
}
