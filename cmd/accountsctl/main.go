package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(b)
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("ACCOUNTS_URL", "http://localhost:8080")
		out     = envOr("ACCOUNTS_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "accountsctl",
		Short: "CLI para operar el servicio de cuentas via su API HTTP",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env ACCOUNTS_URL)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{BaseURL: baseURL, OutFormat: out, HTTP: &http.Client{Timeout: 30 * time.Second}}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Chequea /healthz",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("GET", "/healthz", nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("servicio no disponible: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	var (
		name     string
		email    string
		password string
		role     string
	)
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Crea una cuenta (POST /v1/auth/signup)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("POST", "/v1/auth/signup", map[string]string{
				"name": name, "email": email, "password": password, "role": role,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("signup fallo: status=%d", status)
			}
			return nil
		},
	}
	signupCmd.Flags().StringVar(&name, "name", "", "nombre de la cuenta")
	signupCmd.Flags().StringVar(&email, "email", "", "email")
	signupCmd.Flags().StringVar(&password, "password", "", "password")
	signupCmd.Flags().StringVar(&role, "role", "user", "rol")
	_ = signupCmd.MarkFlagRequired("email")
	_ = signupCmd.MarkFlagRequired("password")

	var verifyToken string
	verifyCmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Verifica un email con su token (GET /v1/auth/verify-email/{token})",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("GET", "/v1/auth/verify-email/"+verifyToken, nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("verificacion fallo: status=%d", status)
			}
			return nil
		},
	}
	verifyCmd.Flags().StringVar(&verifyToken, "token", "", "token del link de verificación")
	_ = verifyCmd.MarkFlagRequired("token")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Paso 1 del login (POST /v1/auth/login)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("POST", "/v1/auth/login", map[string]string{
				"email": email, "password": password,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("login fallo: status=%d", status)
			}
			return nil
		},
	}
	loginCmd.Flags().StringVar(&email, "email", "", "email")
	loginCmd.Flags().StringVar(&password, "password", "", "password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	var mfaToken string
	verifyMFACmd := &cobra.Command{
		Use:   "verify-mfa",
		Short: "Paso 2 del login (POST /v1/auth/verify-mfa)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("POST", "/v1/auth/verify-mfa", map[string]string{
				"email": email, "token": mfaToken,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("verify-mfa fallo: status=%d", status)
			}
			return nil
		},
	}
	verifyMFACmd.Flags().StringVar(&email, "email", "", "email")
	verifyMFACmd.Flags().StringVar(&mfaToken, "token", "", "TOTP o código enviado por email")
	_ = verifyMFACmd.MarkFlagRequired("email")
	_ = verifyMFACmd.MarkFlagRequired("token")

	sendCodeCmd := &cobra.Command{
		Use:   "send-mfa-code",
		Short: "Pide un código MFA por email (POST /v1/auth/send-mfa-code)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("POST", "/v1/auth/send-mfa-code", map[string]string{"email": email})
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("send-mfa-code fallo: status=%d", status)
			}
			return nil
		},
	}
	sendCodeCmd.Flags().StringVar(&email, "email", "", "email")
	_ = sendCodeCmd.MarkFlagRequired("email")

	forgotCmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Pide un link de reset (POST /v1/auth/forgot-password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("POST", "/v1/auth/forgot-password", map[string]string{"email": email})
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("forgot-password fallo: status=%d", status)
			}
			return nil
		},
	}
	forgotCmd.Flags().StringVar(&email, "email", "", "email")
	_ = forgotCmd.MarkFlagRequired("email")

	var backupCode string
	recoverCmd := &cobra.Command{
		Use:   "recover-mfa",
		Short: "Valida un código de respaldo (POST /v1/auth/recover-mfa)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("POST", "/v1/auth/recover-mfa", map[string]string{
				"email": email, "backup_code": backupCode,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("recover-mfa fallo: status=%d", status)
			}
			return nil
		},
	}
	recoverCmd.Flags().StringVar(&email, "email", "", "email")
	recoverCmd.Flags().StringVar(&backupCode, "backup-code", "", "código de respaldo")
	_ = recoverCmd.MarkFlagRequired("email")
	_ = recoverCmd.MarkFlagRequired("backup-code")

	var newPassword string
	resetCmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Consuma un token de reset (POST /v1/auth/reset-password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl.BaseURL = baseURL
			cl.OutFormat = out
			status, body, err := cl.do("POST", "/v1/auth/reset-password", map[string]string{
				"token": verifyToken, "new_password": newPassword,
			})
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("reset-password fallo: status=%d", status)
			}
			return nil
		},
	}
	resetCmd.Flags().StringVar(&verifyToken, "token", "", "token del link de reset")
	resetCmd.Flags().StringVar(&newPassword, "new-password", "", "contraseña nueva")
	_ = resetCmd.MarkFlagRequired("token")
	_ = resetCmd.MarkFlagRequired("new-password")

	root.AddCommand(pingCmd, signupCmd, verifyCmd, loginCmd, verifyMFACmd, sendCodeCmd, recoverCmd, forgotCmd, resetCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
