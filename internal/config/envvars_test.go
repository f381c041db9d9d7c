// ABOUTME: Tests for environment variable expansion in config
// ABOUTME: Validates ${VAR} replacement for set, unset, and nested patterns

package config

import (
	"testing"
)

func TestExpandEnv_Set(t *testing.T) {
	t.Setenv("TEST_JAVA_HOME", "/usr/lib/jvm/java-8")
	result := expandEnv("${TEST_JAVA_HOME}")
	if result != "/usr/lib/jvm/java-8" {
		t.Errorf("expandEnv = %q; want %q", result, "/usr/lib/jvm/java-8")
	}
}

func TestExpandEnv_Unset(t *testing.T) {
	result := expandEnv("${DEFINITELY_NOT_SET_12345}")
	if result != "" {
		t.Errorf("expandEnv = %q; want empty for unset var", result)
	}
}

func TestExpandEnv_Mixed(t *testing.T) {
	t.Setenv("MY_HOST", "localhost")
	result := expandEnv("https://${MY_HOST}:8080/maven/")
	if result != "https://localhost:8080/maven/" {
		t.Errorf("expandEnv = %q; want %q", result, "https://localhost:8080/maven/")
	}
}

func TestExpandEnv_NoPattern(t *testing.T) {
	result := expandEnv("plain string")
	if result != "plain string" {
		t.Errorf("expandEnv = %q; want %q", result, "plain string")
	}
}

func TestExpandEnv_Empty(t *testing.T) {
	result := expandEnv("")
	if result != "" {
		t.Errorf("expandEnv = %q; want empty", result)
	}
}

func TestResolveEnvVars_SettingsFields(t *testing.T) {
	t.Setenv("TEST_MIRROR", "https://mirror.example.com")
	t.Setenv("TEST_JDK", "/opt/jdk8")

	s := &Settings{
		JavaPath:         "${TEST_JDK}/bin/java",
		LibraryBaseURL:   "${TEST_MIRROR}/libraries/",
		ResourcesBaseURL: "${TEST_MIRROR}/resources/",
		LogLevel:         "${TEST_JDK}",
	}

	ResolveEnvVars(s)

	if s.JavaPath != "/opt/jdk8/bin/java" {
		t.Errorf("JavaPath = %q; want %q", s.JavaPath, "/opt/jdk8/bin/java")
	}
	if s.LibraryBaseURL != "https://mirror.example.com/libraries/" {
		t.Errorf("LibraryBaseURL = %q", s.LibraryBaseURL)
	}
	if s.ResourcesBaseURL != "https://mirror.example.com/resources/" {
		t.Errorf("ResourcesBaseURL = %q", s.ResourcesBaseURL)
	}
	if s.LogLevel != "${TEST_JDK}" {
		t.Errorf("LogLevel = %q; only path and URL fields are expanded", s.LogLevel)
	}
}
