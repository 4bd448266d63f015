package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go-library-server/internal/account"
	"go-library-server/internal/audit"
	"go-library-server/internal/domain"
	"go-library-server/internal/store"
	"go-library-server/pkg/utils"

	"go.uber.org/zap"
)

// libctl 运维工具：HTTP 面上没有建管理员和铺书目的入口，
// 这些都直接对文档库操作。

var storePath string

func openStore() (*store.Store, error) { return store.Open(storePath) }

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(b)), nil
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "从 JSON 文件导入书目（按 id 去重）",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var books []domain.Book
			if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &books); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			s, err := openStore()
			if err != nil {
				return err
			}

			added := 0
			err = s.Update(func(doc *store.Document) error {
				for _, b := range books {
					if b.ID == "" {
						b.ID = utils.NewID()
					}
					if doc.BookByID(b.ID) != nil {
						continue
					}
					if b.AvailableCopies == 0 {
						b.AvailableCopies = b.TotalCopies
					}
					doc.Books = append(doc.Books, b)
					added++
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d book(s)\n", added)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "books.json", "书目 JSON 文件")
	return cmd
}

func newCreateAdminCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "创建 Admin 账号（密码交互输入）",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			pw2, err := readPassword("Confirm: ")
			if err != nil {
				return err
			}
			if pw != pw2 {
				return fmt.Errorf("passwords do not match")
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			svc := account.New(s, audit.New(s, zap.NewNop()))
			u, err := svc.CreateAdmin(name, email, pw)
			if err != nil {
				return err
			}
			fmt.Printf("admin created: %s card=%s\n", u.Email, u.LibraryCardID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "姓名")
	cmd.Flags().StringVar(&email, "email", "", "邮箱")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "各集合规模",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			st := s.Stats()
			fmt.Printf("users=%d books=%d rentals=%d logs=%d\n",
				st.Users, st.Books, st.Rentals, st.Logs)
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "library store admin tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&storePath, "store", "./data/db.json", "文档库路径")
	root.AddCommand(newSeedCmd(), newCreateAdminCmd(), newStatsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
