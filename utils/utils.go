package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Commands understood by the CLI.
var commands = []string{"cull", "fetch", "push"}

// ParseArguments converts command-line arguments into a map of flags and values
func ParseArguments() map[string]string {
	args := make(map[string]string)

	// First, identify the command (cull/fetch/push)
	command := ""
	commandIndex := -1
	for i := 1; i < len(os.Args); i++ {
		for _, c := range commands {
			if os.Args[i] == c {
				command = c
				commandIndex = i
				break
			}
		}
		if command != "" {
			break
		}
	}

	if command != "" {
		args["command"] = command
	}

	// Process all arguments, skipping the command
	for i := 1; i < len(os.Args); i++ {
		if i == commandIndex {
			continue
		}

		arg := os.Args[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Check if this is a boolean flag (no value). The command
			// token is never a flag value.
			if i+1 >= len(os.Args) || i+1 == commandIndex || strings.HasPrefix(os.Args[i+1], "--") {
				args[flagName] = "true"
			} else {
				args[flagName] = os.Args[i+1]
				i++ // Skip the value in the next iteration
			}
		}
	}

	return args
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s cull --folder=PATH --cull-to=N [--strategy=NAME] [--config=PATH] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s fetch --bucket=NAME --folder=PATH [--config=PATH]\n", os.Args[0])
	fmt.Printf("  %s push --bucket=NAME --folder=PATH [--config=PATH]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --folder      : Path to folder containing images to cull\n")
	fmt.Printf("  --cull-to     : Number of images to keep after the cull\n")
	fmt.Printf("  --strategy    : Duplicate grouping strategy: embedding-fast, embedding-precise, face-refined, temporal-burst\n")
	fmt.Printf("  --threshold   : Override the similarity threshold for embedding strategies (0.0-1.0)\n")
	fmt.Printf("  --config      : Path to TOML config file (default: culler.toml)\n")
	fmt.Printf("  --bucket      : S3-compatible bucket name for fetch/push\n")
	fmt.Printf("  --output      : Directory for kept images (default: PIPELINE_RESULTS)\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: imageculler.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s cull --folder=/path/to/images --cull-to=50 --strategy=face-refined\n", os.Args[0])
	fmt.Printf("  %s fetch --bucket=culling-pipeline-test --folder=./S3_IMAGES\n", os.Args[0])
}

// ParseThreshold parses and validates a similarity threshold value from string
func ParseThreshold(thresholdStr string) (float64, error) {
	parsedThreshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil || parsedThreshold <= 0 || parsedThreshold > 1 {
		return 0, fmt.Errorf("invalid threshold value '%s'", thresholdStr)
	}
	return parsedThreshold, nil
}

// ParseCullTo parses and validates the target kept count from string
func ParseCullTo(cullToStr string) (int, error) {
	cullTo, err := strconv.Atoi(cullToStr)
	if err != nil || cullTo < 0 {
		return 0, fmt.Errorf("invalid cull-to value '%s', must be a non-negative integer", cullToStr)
	}
	return cullTo, nil
}
