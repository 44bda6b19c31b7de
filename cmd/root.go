////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/ekv"
	"gitlab.com/elixxir/parley/auth"
	"gitlab.com/elixxir/parley/blob"
	"gitlab.com/elixxir/parley/messenger"
	"gitlab.com/elixxir/parley/store"
	"gitlab.com/elixxir/parley/users"
)

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Runs an interactive one-to-one messaging client",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if profileDir := viper.GetString("profile-cpu"); profileDir != "" {
			defer profile.Start(profile.CPUProfile,
				profile.ProfilePath(profileDir)).Stop()
		}

		client, events := initMessenger()

		email := viper.GetString("email")
		password := viper.GetString("loginPassword")
		if email != "" {
			if err := client.SignIn(email, password); err != nil {
				jww.FATAL.Panicf("Failed to sign in: %+v", err)
			}
		}

		runShell(client, events)
	},
}

// initMessenger builds the full client stack from the configured flags.
func initMessenger() (*messenger.Client, *consoleEvents) {
	initLog(viper.GetUint("logLevel"), viper.GetString("log"))
	jww.INFO.Print(Version())

	storeDir := viper.GetString("session")
	pass := viper.GetString("password")

	var kv ekv.KeyValue
	if storeDir == "" {
		jww.WARN.Print("No session directory set; state will not persist")
		kv = ekv.MakeMemstore()
	} else {
		var err error
		kv, err = ekv.NewFilestore(storeDir, pass)
		if err != nil {
			jww.FATAL.Panicf("Failed to open session storage: %+v", err)
		}
	}

	s := store.NewKV(kv)
	provider := auth.NewLocal(s, users.NewManager(s))
	uploader := blob.NewFilesystem(
		viper.GetString("blobDir"), viper.GetString("blobURL"))

	events := newConsoleEvents()
	client := messenger.NewClient(s, provider, uploader, events)
	return client, events
}

// runShell reads commands from stdin until EOF or quit.
func runShell(client *messenger.Client, events *consoleEvents) {
	fmt.Println("Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			client.SignOut()
			return
		}
		dispatchCommand(client, events, line)
	}
}

func dispatchCommand(
	client *messenger.Client, events *consoleEvents, line string) {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	var err error
	switch command {
	case "help":
		printHelp()
	case "signup":
		if len(args) != 3 {
			err = usageErr("signup <username> <email> <password>")
			break
		}
		err = client.SignUp(args[0], args[1], args[2])
	case "login":
		if len(args) != 2 {
			err = usageErr("login <email> <password>")
			break
		}
		err = client.SignIn(args[0], args[1])
	case "logout":
		client.SignOut()
	case "reset":
		if len(args) != 1 {
			err = usageErr("reset <email>")
			break
		}
		err = client.ResetPassword(args[0])
	case "profile":
		err = profileCommand(client, args)
	case "search":
		if len(args) != 1 {
			err = usageErr("search <username>")
			break
		}
		var found users.User
		if found, err = client.Search(args[0]); err == nil {
			fmt.Printf("%s (%s) %q\n", found.Username, found.Name, found.Bio)
		}
	case "add":
		err = addCommand(client, args)
	case "list":
		events.printConversations(client.Conversations())
	case "open":
		err = openCommand(client, events, args)
	case "send":
		if len(args) == 0 {
			err = usageErr("send <text>")
			break
		}
		err = client.SendText(strings.Join(args, " "))
	case "image":
		err = imageCommand(client, args)
	default:
		err = usageErr("unknown command %q; try 'help'", command)
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func usageErr(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func printHelp() {
	fmt.Print(`commands:
  signup <username> <email> <password>
  login <email> <password>
  logout
  reset <email>
  profile <name> [bio] [avatar file]
  search <username>
  add <username>
  list
  open <number>
  send <text>
  image <file>
  quit
`)
}

func initLog(threshold uint, logPath string) {
	if logPath != "-" && logPath != "" {
		// Disable stdout output
		jww.SetStdoutOutput(ioutil.Discard)
		// Use log file
		logOutput, err := os.OpenFile(logPath,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err.Error())
		}
		jww.SetLogOutput(logOutput)
	}

	if threshold > 1 {
		jww.INFO.Printf("log level set to: TRACE")
		jww.SetStdoutThreshold(jww.LevelTrace)
		jww.SetLogThreshold(jww.LevelTrace)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else if threshold == 1 {
		jww.INFO.Printf("log level set to: DEBUG")
		jww.SetStdoutThreshold(jww.LevelDebug)
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		jww.INFO.Printf("log level set to: INFO")
		jww.SetStdoutThreshold(jww.LevelInfo)
		jww.SetLogThreshold(jww.LevelInfo)
	}
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	// NOTE: The point of init() is to be declarative.
	// There is one init in each sub command. Do not put variable declarations
	// here, and ensure all the Flags are of the *P variety, unless there's a
	// very good reason not to have them as local params to sub command."
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().UintP("logLevel", "v", 0,
		"Verbose mode for debugging")
	viper.BindPFlag("logLevel", rootCmd.PersistentFlags().Lookup("logLevel"))

	rootCmd.PersistentFlags().StringP("session", "s", "",
		"Sets the storage directory for client session data")
	viper.BindPFlag("session", rootCmd.PersistentFlags().Lookup("session"))

	rootCmd.PersistentFlags().StringP("password", "p", "",
		"Password to the session file")
	viper.BindPFlag("password", rootCmd.PersistentFlags().Lookup("password"))

	rootCmd.PersistentFlags().StringP("log", "l", "-",
		"Path to the log output path (- is stdout)")
	viper.BindPFlag("log", rootCmd.PersistentFlags().Lookup("log"))

	rootCmd.PersistentFlags().String("blobDir", "blobs",
		"Directory image uploads are stored under")
	viper.BindPFlag("blobDir", rootCmd.PersistentFlags().Lookup("blobDir"))

	rootCmd.PersistentFlags().String("blobURL", "file://blobs",
		"Base URL recorded for uploaded images")
	viper.BindPFlag("blobURL", rootCmd.PersistentFlags().Lookup("blobURL"))

	rootCmd.Flags().StringP("email", "e", "",
		"Sign in with this email on start")
	viper.BindPFlag("email", rootCmd.Flags().Lookup("email"))

	rootCmd.Flags().String("loginPassword", "",
		"Password for the account given with --email")
	viper.BindPFlag("loginPassword", rootCmd.Flags().Lookup("loginPassword"))

	rootCmd.Flags().String("profile-cpu", "",
		"Enable cpu profiling into this directory")
	viper.BindPFlag("profile-cpu", rootCmd.Flags().Lookup("profile-cpu"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {}
