package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	internal_http "github.com/gnu3ra/bobot/internal/http"
	"github.com/gnu3ra/bobot/internal/log"
	internal_storage "github.com/gnu3ra/bobot/internal/storage"
	"github.com/gnu3ra/bobot/pkg/service"
	"github.com/gnu3ra/bobot/pkg/storage"
)

func SetupCLI(rootCmd *cobra.Command) {
	createCmd := &cobra.Command{
		Use:   "create [trigger] [start-content]",
		Short: "Create a conversation template with its start state",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving db flag: %v", err)
				os.Exit(1)
			}
			store := initStore(dbConnStr)
			defer store.Close()
			svc := service.NewConversationService(store, log.GetLogger())
			conv, start, err := svc.CreateConversation(uuid.New(), args[0], args[1], nil)
			if err != nil {
				log.GetLogger().Errorf("Error creating conversation: %v", err)
				fmt.Printf("Error creating conversation: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Created conversation %s (start state %s)\n", conv.ConversationID, start.StateID)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all conversation templates",
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving db flag: %v", err)
				os.Exit(1)
			}
			store := initStore(dbConnStr)
			defer store.Close()
			svc := service.NewConversationService(store, log.GetLogger())
			conversations, err := svc.ListConversations()
			if err != nil {
				log.GetLogger().Errorf("Error listing conversations: %v", err)
				os.Exit(1)
			}
			if len(conversations) == 0 {
				fmt.Println("No conversations found.")
				return
			}
			for _, c := range conversations {
				scope := "global"
				if c.ChatID != nil {
					scope = fmt.Sprintf("chat %d", *c.ChatID)
				}
				fmt.Printf("- %s trigger '%s' (%s)\n", c.ConversationID, c.TriggerPhrase, scope)
			}
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			dbConnStr, err := cmd.Flags().GetString("db")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving db flag: %v", err)
				os.Exit(1)
			}
			port, err := cmd.Flags().GetString("port")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving port flag: %v", err)
				os.Exit(1)
			}
			store := initStore(dbConnStr)
			defer store.Close()
			if err := internal_http.StartServer(port, store); err != nil {
				log.GetLogger().Errorf("Server failed: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "8080", "Port for the HTTP server")

	rootCmd.AddCommand(createCmd, listCmd, serveCmd)
	rootCmd.PersistentFlags().String("db", "", "Database connection string")
}

func initStore(dbConnStr string) storage.Store {
	if dbConnStr == "" {
		fmt.Println("Error: --db flag is required")
		os.Exit(1)
	}
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Error initializing store: %v", err)
		fmt.Printf("Error initializing store: %v\n", err)
		os.Exit(1)
	}
	return store
}
