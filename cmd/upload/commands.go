package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/sir_venger/upload_lite/pkg/uploadclient"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	baseURL string
	quiet   bool
}

func (o *rootOptions) client(cmd *cobra.Command) uploadclient.Client {
	if o.quiet {
		return uploadclient.New()
	}
	return uploadclient.New(uploadclient.WithProgress(cmd.ErrOrStderr()))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "upload",
		Short:         "Client for the upload_lite product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("UPLOAD_LITE_URL", "http://localhost:8080"), "service base URL")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "disable progress output")

	root.AddCommand(newCreateCmd(opts), newGetCmd(opts), newFetchCmd(opts))
	return root
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var title, price, photo string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product, optionally with a cover photo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := uploadclient.ProductRequest{Title: title, Price: price}

			if photo != "" {
				f, err := os.Open(photo)
				if err != nil {
					return err
				}
				defer f.Close()

				st, err := f.Stat()
				if err != nil {
					return err
				}
				req.Photo = f
				req.PhotoName = filepath.Base(photo)
				req.PhotoContentType = mime.TypeByExtension(filepath.Ext(photo))
				req.PhotoSize = st.Size()
			}

			p, err := opts.client(cmd).CreateProduct(cmd.Context(), opts.baseURL, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "product title")
	cmd.Flags().StringVar(&price, "price", "", "product price")
	cmd.Flags().StringVar(&photo, "photo", "", "path to the cover photo")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a product as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.client(cmd).GetProduct(cmd.Context(), opts.baseURL, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch <id>",
		Short: "Download the cover photo of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := opts.client(cmd)
			p, err := cli.GetProduct(cmd.Context(), opts.baseURL, args[0])
			if err != nil {
				return err
			}
			if p.Photo == nil {
				return fmt.Errorf("product %s has no photo", p.ID)
			}

			rc, err := cli.FetchPhoto(cmd.Context(), opts.baseURL, *p.Photo)
			if err != nil {
				return err
			}
			defer rc.Close()

			if out == "" {
				out = p.Photo.Name
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, rc); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stored name)")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
