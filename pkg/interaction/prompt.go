// pkg/interaction/prompt.go

package interaction

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// PromptIfMissing returns the value of a CLI flag or prompts the user if it's unset.
// If `isSecret` is true, the input is hidden (e.g. attestation phrases).
func PromptIfMissing(cmd *cobra.Command, flagName, prompt string, isSecret bool) (string, error) {
	val, err := cmd.Flags().GetString(flagName)
	if err != nil {
		zap.L().Error("Failed to get CLI flag", zap.String("flag", flagName), zap.Error(err))
		return "", err
	}
	if val != "" {
		return val, nil
	}

	zap.L().Info("📝 Prompting for missing flag", zap.String("flag", flagName), zap.Bool("is_secret", isSecret))

	if isSecret {
		return PromptSecret(prompt)
	}
	return PromptInput(prompt), nil
}

// PromptSecret asks the user for a hidden input (no terminal echo).
func PromptSecret(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		zap.L().Error("❌ Cannot prompt for secret input: not a TTY")
		return "", fmt.Errorf("secret prompt failed: no terminal available")
	}

	fmt.Print(prompt + ": ")
	byteInput, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		zap.L().Error("❌ Failed to read secret input", zap.Error(err))
		return "", err
	}
	secret := strings.TrimSpace(string(byteInput))
	if secret == "" {
		zap.L().Warn("⚠️ No input received for secret", zap.String("prompt", prompt))
	}
	return secret, nil
}

// PromptInput reads a visible line of input from stdin.
func PromptInput(prompt string) string {
	fmt.Print(prompt + ": ")
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		zap.L().Warn("⚠️ Failed to read input", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(input)
}
