// devtoken emite un JWT firmado con JWT_SECRET para probar la API en local.
//
// Uso: go run ./cmd/devtoken -company <id> [-user <id>] [-role admin|bodeguero|vendedor] [-ttl 8h]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/jwt"
)

func main() {
	company := flag.String("company", "", "ID de la empresa (obligatorio salvo rol sistema)")
	user := flag.String("user", "", "ID del usuario (por defecto uno aleatorio)")
	role := flag.String("role", jwt.RoleAdmin, "rol: admin, bodeguero, vendedor o sistema")
	ttl := flag.Duration("ttl", 0, "vigencia del token (por defecto JWT_EXPIRATION_MINUTES)")
	flag.Parse()

	switch *role {
	case jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor:
		if *company == "" {
			fmt.Fprintln(os.Stderr, "falta -company")
			os.Exit(2)
		}
	case jwt.RoleSistema:
	default:
		fmt.Fprintf(os.Stderr, "rol desconocido %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if *user == "" {
		*user = uuid.New().String()
	}
	if *ttl == 0 {
		*ttl = time.Duration(cfg.JWT.Expiration) * time.Minute
	}

	token, err := jwt.Generate(cfg.JWT.Secret, cfg.JWT.Issuer, jwt.Identity{
		UserID:    *user,
		CompanyID: *company,
		Role:      *role,
	}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
