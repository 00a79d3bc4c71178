package registry

// Built-in step names.
const (
	StepInit     = "init"
	StepValidate = "validate"
	StepPlan     = "plan"
	StepApply    = "apply"
	StepRevert   = "revert"
	StepDestroy  = "destroy"
	StepEcho     = "echo"
)

// Default returns the built-in Terraform registry.
//
// Templates see .WorkDir, .Environment, .Action, .RequestID and .Vars.
func Default() *Registry {
	return MustNew(
		NewStepDefinition(StepInit,
			`terraform -chdir={{.WorkDir}} init -input=false -no-color`),
		NewStepDefinition(StepValidate,
			`terraform -chdir={{.WorkDir}} validate -no-color`).
			Requires(StepInit),
		NewStepDefinition(StepPlan,
			`terraform -chdir={{.WorkDir}} plan -input=false -no-color -var-file={{.Environment}}.tfvars -out={{.Environment}}.tfplan`).
			Requires(StepValidate),
		NewStepDefinition(StepApply,
			`terraform -chdir={{.WorkDir}} apply -input=false -no-color -auto-approve {{.Environment}}.tfplan`).
			Requires(StepPlan).
			WithRollback(StepRevert),
		NewStepDefinition(StepRevert,
			`terraform -chdir={{.WorkDir}} apply -input=false -no-color -auto-approve -var-file={{.Environment}}.previous.tfvars`),
		NewStepDefinition(StepDestroy,
			`terraform -chdir={{.WorkDir}} destroy -input=false -no-color -auto-approve -var-file={{.Environment}}.tfvars`).
			Requires(StepInit),
		NewStepDefinition(StepEcho,
			`echo "Hello deploy"`),
	)
}
