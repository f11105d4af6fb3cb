// Command modctl prints a bcrypt hash for MODERATOR_PASSWORD_HASH.  The
// password is read from the first line of stdin.
//
//	echo 'a long moderator password' | modctl -cost 12
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/parish-events/internal/utils"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		slog.Error("read password from stdin", "error", err)
		os.Exit(1)
	}
	hash, err := utils.HashPassword(strings.TrimRight(line, "\r\n"), *cost)
	if err != nil {
		slog.Error("hash password", "min_length", utils.MinPasswordLen, "error", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
