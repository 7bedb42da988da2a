package cmd

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	to    string
	value uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transfer and send it to the node",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account or key name receiving the value.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	// Names of the keys in the account folder can be used in place of
	// an account.
	ns, err := nameservice.New(accountPath)
	if err != nil {
		return err
	}

	toID, err := ns.Resolve(to)
	if err != nil {
		return err
	}

	fromID := database.PublicKeyToAccountID(privateKey.PublicKey)

	tx, err := database.NewTransfer(fromID, toID, value, privateKey)
	if err != nil {
		return err
	}

	pending, err := client.submit(cmd.Context(), nodeURL, tx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent %d from %s to %s, %d pending\n", value, fromID, toID, pending)
	return nil
}
